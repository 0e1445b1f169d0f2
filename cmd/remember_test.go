package cmd

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/SynapseHQ/limbic/internal/memory"
)

func TestExecute_Remember(t *testing.T) {
	tmpDir := t.TempDir()
	orig := os.Getenv("LIMBIC_DATA_DIR")
	os.Setenv("LIMBIC_DATA_DIR", tmpDir)
	defer func() { os.Setenv("LIMBIC_DATA_DIR", orig) }()

	defer setArgs("limbic", "remember", "test memory", "test memory content")()
	out, err := captureStdout(func() {
		if e := Execute(); e != nil {
			t.Fatalf("Execute(remember): %v", e)
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Remembered") {
		t.Errorf("expected confirmation: %q", out)
	}
}

func TestExecute_Remember_WithTags(t *testing.T) {
	tmpDir := t.TempDir()
	os.Setenv("LIMBIC_DATA_DIR", tmpDir)
	defer os.Unsetenv("LIMBIC_DATA_DIR")
	defer setArgs("limbic", "remember", "tagged memory", "content with tags", "--tags", "a,b")()
	if err := Execute(); err != nil {
		t.Fatalf("Execute(remember --tags): %v", err)
	}

	store, err := memory.NewStore()
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer store.Close()
	page, err := store.List(context.Background(), memory.ListOptions{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Total != 1 {
		t.Fatalf("expected 1 memory, got %d", page.Total)
	}
	if len(page.Items[0].Tags) != 2 {
		t.Errorf("expected 2 tags, got %v", page.Items[0].Tags)
	}
}

func TestExecute_Remember_MissingArgs(t *testing.T) {
	defer setArgs("limbic", "remember", "only a title")()
	if err := Execute(); err == nil {
		t.Error("remember with one arg should return error")
	}
}
