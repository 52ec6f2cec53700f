package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

var (
	testCode  = MustNewCode("test.code")
	testCode2 = MustNewCode("test.code2")
)

func TestNewCode(t *testing.T) {
	validCodes := []string{
		"db.connection_failed",
		"script.read_failed",
		"yuque.status_unexpected",
	}

	for _, codeStr := range validCodes {
		code, err := NewCode(codeStr)
		if err != nil {
			t.Errorf("Expected valid code '%s' to succeed, got error: %v", codeStr, err)
		}
		if code.String() != codeStr {
			t.Errorf("Expected code string '%s', got '%s'", codeStr, code.String())
		}
	}

	invalidCodes := []string{
		"invalid",
		"db.",
		".connection_failed",
		"DB.connection_failed",
		"db.connection-failed",
		"db..connection_failed",
		"error.connection_failed",
		"db.err_connect",
	}

	for _, codeStr := range invalidCodes {
		if _, err := NewCode(codeStr); err == nil {
			t.Errorf("Expected invalid code '%s' to fail, but it succeeded", codeStr)
		}
	}
}

func TestMustNewCodePanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected MustNewCode to panic with invalid code")
		}
	}()
	MustNewCode("invalid")
}

func TestCodePackageAndName(t *testing.T) {
	code := MustNewCode("db.connection_failed")

	if code.Package() != "db" {
		t.Errorf("Expected package 'db', got '%s'", code.Package())
	}
	if code.Name() != "connection_failed" {
		t.Errorf("Expected name 'connection_failed', got '%s'", code.Name())
	}
	if !code.Equals(MustNewCode("db.connection_failed")) {
		t.Error("Expected identical codes to be equal")
	}
}

func TestNewAndWrap(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := New(testCode, "connect failed", cause)

	if err.Error() != "connect failed: dial tcp: refused" {
		t.Errorf("Unexpected message: %s", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("Expected errors.Is to find the cause")
	}
	if err.Timestamp.IsZero() {
		t.Error("Expected timestamp to be set")
	}
	if len(err.Stack) == 0 {
		t.Error("Expected stack trace to be captured")
	}

	plain := Newf(testCode, "block %s", "daily")
	if plain.Error() != "block daily" {
		t.Errorf("Unexpected message: %s", plain.Error())
	}

	wrapped := Wrapf(testCode2, cause, "attempt %d", 3)
	if wrapped.Cause != cause || wrapped.Message != "attempt 3" {
		t.Errorf("Unexpected wrap result: %+v", wrapped)
	}
}

func TestHasCodeWalksChain(t *testing.T) {
	inner := New(testCode, "inner", nil)
	outer := fmt.Errorf("outer: %w", inner)
	coded := New(testCode2, "coded", outer)

	if !HasCode(coded, testCode) {
		t.Error("Expected HasCode to find inner code through fmt wrapping")
	}
	if !HasCode(coded, testCode2) {
		t.Error("Expected HasCode to match the outer code")
	}
	if HasCode(errors.New("plain"), testCode) {
		t.Error("Expected HasCode to be false for foreign errors")
	}
	if GetCode(outer) != "test.code" {
		t.Errorf("Expected GetCode to unwrap, got '%s'", GetCode(outer))
	}
}

func TestContextAndFormat(t *testing.T) {
	err := New(testCode, "execution failed", errors.New("syntax")).
		AddContext("block", "daily").
		AddContext("attempt", "1")

	ctx := GetContext(err)
	if ctx["block"] != "daily" {
		t.Errorf("Expected block context, got %v", ctx)
	}

	formatted := FormatError(err)
	for _, want := range []string{"Code: test.code", "Message: execution failed", "  attempt: 1", "  block: daily", "Cause: syntax"} {
		if !strings.Contains(formatted, want) {
			t.Errorf("Expected formatted error to contain %q, got:\n%s", want, formatted)
		}
	}

	// Keys are rendered sorted
	if strings.Index(formatted, "attempt") > strings.Index(formatted, "block") {
		t.Error("Expected context keys in sorted order")
	}
}

func TestAsError(t *testing.T) {
	if AsError(nil) != nil {
		t.Error("Expected nil for nil input")
	}

	ours := New(testCode, "ours", nil)
	if AsError(ours) != ours {
		t.Error("Expected *Error to be returned as-is")
	}

	foreign := AsError(errors.New("boom"))
	if !foreign.Code.Equals(CommonInternal) {
		t.Errorf("Expected common.internal, got %s", foreign.Code)
	}
	if !IsAirbusError(foreign) {
		t.Error("Expected converted error to be ours")
	}
}

func TestIsMatchesCode(t *testing.T) {
	sentinel := New(testCode, "", nil)
	err := fmt.Errorf("run: %w", New(testCode, "block daily failed", nil))

	if !errors.Is(err, sentinel) {
		t.Error("Expected errors.Is to match by code")
	}
	if errors.Is(err, New(testCode2, "", nil)) {
		t.Error("Expected a different code not to match")
	}
}

func TestZeroCode(t *testing.T) {
	var code Code
	if !code.IsZero() || code.String() != "" || code.Package() != "" {
		t.Errorf("Expected zero code to be empty, got %q", code.String())
	}
	if testCode.IsZero() {
		t.Error("Expected declared code to be set")
	}
}

func TestStackStartsAtCaller(t *testing.T) {
	err := New(testCode, "here", nil)
	if len(err.Stack) == 0 {
		t.Fatal("Expected stack frames")
	}
	if !strings.HasSuffix(err.Stack[0].Function, "TestStackStartsAtCaller") {
		t.Errorf("Expected first frame to be the caller, got %s", err.Stack[0].Function)
	}
}
