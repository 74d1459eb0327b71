// Package assets provides embedded static assets for the application.
//
// Prompt templates are stored as text files under prompts/ and embedded at
// compile time.
package assets

import (
	_ "embed"
)

// PerfectCutPrompt instructs the model to analyze raw footage and return an
// edit decision list of segments worth keeping, as a JSON array.
//
//go:embed prompts/perfect-cut.txt
var PerfectCutPrompt string
