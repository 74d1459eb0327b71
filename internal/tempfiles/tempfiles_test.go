package tempfiles

import (
	"os"
	"strings"
	"testing"
)

func TestWorkspacePersistAndCleanup(t *testing.T) {
	ws, err := NewWorkspace()
	if err != nil {
		t.Fatalf("NewWorkspace failed: %v", err)
	}

	path, err := ws.Persist("source_0.mp4", strings.NewReader("fake video bytes"))
	if err != nil {
		t.Fatalf("Persist failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("persisted file unreadable: %v", err)
	}
	if string(data) != "fake video bytes" {
		t.Errorf("unexpected content: %q", data)
	}

	ws.Cleanup()
	if _, err := os.Stat(ws.Dir()); !os.IsNotExist(err) {
		t.Errorf("workspace dir should be removed, stat err = %v", err)
	}
}

func TestWorkspaceIsolation(t *testing.T) {
	a, err := NewWorkspace()
	if err != nil {
		t.Fatalf("NewWorkspace failed: %v", err)
	}
	defer a.Cleanup()

	b, err := NewWorkspace()
	if err != nil {
		t.Fatalf("NewWorkspace failed: %v", err)
	}
	defer b.Cleanup()

	if a.Dir() == b.Dir() {
		t.Error("two workspaces must not share a directory")
	}
}

func TestCleanupIsIdempotent(t *testing.T) {
	ws, err := NewWorkspace()
	if err != nil {
		t.Fatalf("NewWorkspace failed: %v", err)
	}
	ws.Cleanup()
	ws.Cleanup() // second call must not panic or error
}
