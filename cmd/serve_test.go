package cmd

import (
	"os"
	"strings"
	"testing"
)

func TestExecute_Version(t *testing.T) {
	defer setArgs("limbic", "version")()
	out, err := captureStdout(func() {
		if e := Execute(); e != nil {
			t.Fatalf("Execute(version): %v", e)
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	if out == "" {
		t.Error("version should print to stdout")
	}
	if !strings.Contains(out, "limbic") {
		t.Errorf("version output should contain 'limbic': %q", out)
	}
}

func TestExecute_Status(t *testing.T) {
	tmpDir := t.TempDir()
	orig := os.Getenv("LIMBIC_DATA_DIR")
	os.Setenv("LIMBIC_DATA_DIR", tmpDir)
	defer func() {
		os.Setenv("LIMBIC_DATA_DIR", orig)
	}()

	defer setArgs("limbic", "status")()
	out, err := captureStdout(func() {
		if e := Execute(); e != nil {
			t.Fatalf("Execute(status): %v", e)
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Limbic Memory Status") {
		t.Errorf("status output: %q", out)
	}
	if !strings.Contains(out, tmpDir) {
		t.Errorf("status should report the data dir: %q", out)
	}
}
