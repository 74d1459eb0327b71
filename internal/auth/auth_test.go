package auth

import (
	"errors"
	"testing"
)

func TestGetAPIKey_Explicit(t *testing.T) {
	key, err := GetAPIKey("explicit-key")
	if err != nil {
		t.Fatalf("GetAPIKey failed: %v", err)
	}
	if key != "explicit-key" {
		t.Errorf("expected explicit key to win, got %q", key)
	}
}

func TestGetAPIKey_Env(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env-key")

	key, err := GetAPIKey("")
	if err != nil {
		t.Fatalf("GetAPIKey failed: %v", err)
	}
	if key != "env-key" {
		t.Errorf("expected env key, got %q", key)
	}
}

func TestGetAPIKey_ExplicitBeatsEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env-key")

	key, err := GetAPIKey("flag-key")
	if err != nil {
		t.Fatalf("GetAPIKey failed: %v", err)
	}
	if key != "flag-key" {
		t.Errorf("expected flag key to win, got %q", key)
	}
}

func TestGetAPIKey_Missing(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	tmp := t.TempDir()
	t.Chdir(tmp) // no .env here

	_, err := GetAPIKey("")
	if !errors.Is(err, ErrMissingKey) {
		t.Fatalf("expected ErrMissingKey, got %v", err)
	}
}
