package selector

import "fmt"

// FileProcessingError indicates a source file could not be uploaded to or
// processed by the Gemini Files API.
type FileProcessingError struct {
	Path string
	Err  error
}

func (e *FileProcessingError) Error() string {
	return fmt.Sprintf("file processing failed for %s: %v", e.Path, e.Err)
}

func (e *FileProcessingError) Unwrap() error {
	return e.Err
}

// AnalysisError indicates the model call itself failed, including exhausting
// all rate-limit retries.
type AnalysisError struct {
	Err error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analysis failed: %v", e.Err)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// MalformedResponseError indicates the model replied but no JSON segment list
// could be recovered from the text. Raw preserves the response for diagnosis.
type MalformedResponseError struct {
	Raw string
	Err error
}

// maxRawSnippet bounds how much response text is surfaced in logs and job
// records; full responses can run to the token limit.
const maxRawSnippet = 500

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("could not parse segment list from model response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// Snippet returns the raw response truncated for display.
func (e *MalformedResponseError) Snippet() string {
	if len(e.Raw) <= maxRawSnippet {
		return e.Raw
	}
	return e.Raw[:maxRawSnippet] + "..."
}
