package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func TestErrorCodeChecker(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"store/errors.go": `package store

import "example.com/app/pkg/errors"

var (
	ErrReadFailed  = errors.MustNewCode("store.read_failed")
	ErrWriteFailed = errors.MustNewCode("store.write_failed")
	ErrBadName     = errors.MustNewCode("Store-Bad")
)
`,
		"store/store.go": `package store

import (
	"fmt"

	"example.com/app/pkg/errors"
)

func Read() error {
	return errors.New(ErrReadFailed, "read failed", nil)
}

func wrap(err error) error {
	return fmt.Errorf("wrapped: %w", err)
}
`,
		"app/app.go": `package app

import (
	s "example.com/app/store"
	"example.com/app/pkg/errors"
)

var ErrCopy = errors.MustNewCode("store.read_failed")

func Check(err error) bool {
	return errors.HasCode(err, s.ErrBadName) || errors.HasCode(err, ErrCopy)
}
`,
		"skip/skip.go": `package skip

import "example.com/app/pkg/errors"

var ErrHidden = errors.MustNewCode("skip.hidden")
`,
	})

	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	checker, err := NewErrorCodeChecker(cfg)
	if err != nil {
		t.Fatalf("NewErrorCodeChecker: %v", err)
	}
	if err := checker.CheckDirectory(dir, []string{"skip/"}); err != nil {
		t.Fatalf("CheckDirectory: %v", err)
	}

	unused := checker.Unused()
	if len(unused) != 1 || unused[0].Var != "ErrWriteFailed" {
		t.Errorf("expected only ErrWriteFailed unused, got %+v", unused)
	}

	duplicates := checker.Duplicates()
	if len(duplicates) != 1 || len(duplicates["store.read_failed"]) != 2 {
		t.Errorf("expected store.read_failed declared twice, got %+v", duplicates)
	}

	violations := checker.Violations()
	if len(violations) != 2 {
		t.Fatalf("expected 2 violations, got %v", violations)
	}
	if filepath.Base(violations[0].File) != "errors.go" || violations[0].Line != 8 {
		t.Errorf("expected code format violation at errors.go:8, got %v", violations[0])
	}
	if filepath.Base(violations[1].File) != "store.go" || violations[1].Line != 14 {
		t.Errorf("expected forbidden pattern at store.go:14, got %v", violations[1])
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".errorcode.yml")
	if err := os.WriteFile(path, []byte("exclude_paths: [gen/]\nexit_on_unused: false\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if len(cfg.ExcludePaths) != 1 || cfg.ExcludePaths[0] != "gen/" {
		t.Errorf("unexpected exclude paths %v", cfg.ExcludePaths)
	}
	if cfg.ExitOnUnused {
		t.Error("exit_on_unused should be overridden")
	}
	if !cfg.ExitOnDuplicate {
		t.Error("exit_on_duplicate should keep its default")
	}

	if _, err := loadConfig(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Error("expected error for a missing file")
	}
}
