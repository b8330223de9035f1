package authvar

import (
	"errors"
	"runtime"
	"strings"
	"testing"
	"time"
)

func skipWithoutShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

func TestRunnerReportsNonZeroExit(t *testing.T) {
	skipWithoutShell(t)
	r := Runner{}
	err := r.run("", "sh", "-c", "echo boom >&2; exit 3")
	if err == nil {
		t.Fatal("expected an error for a non-zero exit")
	}
	var terr *ToolError
	if !errors.As(err, &terr) {
		t.Fatalf("got %T, want *ToolError", err)
	}
	if terr.Tool != "sh" {
		t.Fatalf("ToolError.Tool = %q", terr.Tool)
	}
	if !strings.Contains(terr.Error(), "boom") {
		t.Fatalf("stderr not captured: %q", terr.Error())
	}
}

func TestRunnerSuccess(t *testing.T) {
	skipWithoutShell(t)
	r := Runner{}
	if err := r.run("", "sh", "-c", "exit 0"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunnerPassesStdin(t *testing.T) {
	skipWithoutShell(t)
	r := Runner{}
	if err := r.run("secret\n", "sh", "-c", `read x && test "$x" = secret`); err != nil {
		t.Fatalf("stdin did not reach the tool: %v", err)
	}
}

func TestRunnerTimeout(t *testing.T) {
	skipWithoutShell(t)
	r := Runner{Timeout: 50 * time.Millisecond}
	start := time.Now()
	err := r.run("", "sleep", "10")
	if err == nil {
		t.Fatal("expected a timeout error")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("timeout did not bound the call, took %v", elapsed)
	}
	var terr *ToolError
	if !errors.As(err, &terr) {
		t.Fatalf("got %T, want *ToolError", err)
	}
}
