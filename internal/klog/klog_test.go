package klog

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestLevelMasking(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)

	prev := SetLevel(Error)
	defer SetLevel(prev)

	Debugf("should not appear")
	if buf.Len() != 0 {
		t.Fatalf("expected Debugf to be masked out, got %q", buf.String())
	}

	Errorf("boom %d", 42)
	if !strings.Contains(buf.String(), "boom 42") {
		t.Fatalf("expected error line, got %q", buf.String())
	}
}

func TestFatalfCallsExiter(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)

	var code int
	called := false
	SetExiter(func(c int) { called = true; code = c })
	defer SetExiter(os.Exit)

	Fatalf("disk failure on block %d", 7)

	if !called {
		t.Fatalf("expected Fatalf to invoke the exiter")
	}
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(buf.String(), "disk failure on block 7") {
		t.Fatalf("expected fatal message logged, got %q", buf.String())
	}
}

func TestFatalfIsUnmaskable(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)
	SetExiter(func(int) {})
	defer SetExiter(os.Exit)

	prev := SetLevel(Nothing)
	defer SetLevel(prev)

	Fatalf("still printed")
	if !strings.Contains(buf.String(), "still printed") {
		t.Fatalf("expected Fatalf to bypass the mask, got %q", buf.String())
	}
}
