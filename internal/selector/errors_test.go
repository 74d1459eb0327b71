package selector

import (
	"errors"
	"strings"
	"testing"

	"github.com/fpang/reel-director/internal/jsonutil"
)

func TestMalformedResponseError_KeepsRawText(t *testing.T) {
	raw := "I could not find any segments, sorry!"
	err := &MalformedResponseError{Raw: raw, Err: jsonutil.ErrNoJSON}

	if err.Snippet() != raw {
		t.Errorf("short response must surface unchanged, got %q", err.Snippet())
	}
	if !errors.Is(err, jsonutil.ErrNoJSON) {
		t.Error("parse cause must unwrap")
	}
}

func TestMalformedResponseError_TruncatesLongResponses(t *testing.T) {
	raw := strings.Repeat("x", maxRawSnippet+100)
	err := &MalformedResponseError{Raw: raw, Err: jsonutil.ErrNoJSON}

	got := err.Snippet()
	if len(got) != maxRawSnippet+len("...") {
		t.Errorf("snippet length: got %d", len(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("truncated snippet must be marked, got suffix %q", got[len(got)-10:])
	}
}
