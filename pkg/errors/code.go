package errors

import (
	"fmt"
	"regexp"
	"strings"
)

// Code identifies a failure as "package.name"
type Code struct {
	pkg  string
	name string
}

// CommonInternal marks foreign errors converted by AsError
var CommonInternal = MustNewCode("common.internal")

var segmentRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// NewCode validates s and splits it into package and name
func NewCode(s string) (Code, error) {
	pkg, name, ok := strings.Cut(s, ".")
	if !ok || !segmentRegex.MatchString(pkg) || !segmentRegex.MatchString(name) {
		return Code{}, fmt.Errorf("invalid code %q: must be 'package.name' in lowercase with underscores", s)
	}
	// "err" also rules out "error"
	if strings.Contains(s, "err") {
		return Code{}, fmt.Errorf("invalid code %q: should not contain 'error' or 'err'", s)
	}
	return Code{pkg: pkg, name: name}, nil
}

// MustNewCode is NewCode for package-level declarations; it panics on a bad code
func MustNewCode(s string) Code {
	code, err := NewCode(s)
	if err != nil {
		panic(err)
	}
	return code
}

func (c Code) String() string {
	if c.IsZero() {
		return ""
	}
	return c.pkg + "." + c.name
}

// Package is the part before the dot
func (c Code) Package() string { return c.pkg }

// Name is the part after the dot
func (c Code) Name() string { return c.name }

// IsZero reports whether c was never assigned
func (c Code) IsZero() bool { return c.pkg == "" && c.name == "" }

// Equals compares two codes
func (c Code) Equals(other Code) bool { return c == other }
