package selector

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// maxAnalysisAttempts bounds the generate calls made for one selection.
const maxAnalysisAttempts = 4

// generateWithRetry calls the model, backing off 2s, 4s, then 8s after
// rate-limited attempts. Any other failure is terminal immediately.
func (s *GeminiSelector) generateWithRetry(ctx context.Context, call func() (string, error)) (string, error) {
	var lastErr error
	for attempt := 0; attempt < maxAnalysisAttempts; attempt++ {
		text, err := call()
		if err == nil {
			return text, nil
		}
		if !isRateLimited(err) {
			return "", &AnalysisError{Err: err}
		}
		lastErr = err

		if attempt < maxAnalysisAttempts-1 {
			delay := time.Duration(1<<attempt) * 2 * time.Second
			log.Warn().
				Err(err).
				Int("attempt", attempt+1).
				Dur("backoff", delay).
				Msg("Rate limited by Gemini API, retrying")
			s.sleep(delay)
		}

		if err := ctx.Err(); err != nil {
			return "", &AnalysisError{Err: err}
		}
	}
	return "", &AnalysisError{Err: lastErr}
}

// isRateLimited reports whether the error is a quota or rate-limit rejection.
func isRateLimited(err error) bool {
	var apiErr *genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == 429
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") || strings.Contains(msg, "resource exhausted") || strings.Contains(msg, "resource_exhausted")
}
