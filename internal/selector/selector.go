// Package selector asks a Gemini multimodal model to watch raw footage and
// propose an edit decision list of segments worth keeping.
package selector

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/fpang/reel-director/internal/assets"
	"github.com/fpang/reel-director/internal/edl"
	"github.com/fpang/reel-director/internal/jsonutil"
	"github.com/fpang/reel-director/internal/metrics"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.0-flash"

const (
	defaultPollInterval = 2 * time.Second
	uploadTimeout       = 10 * time.Minute
)

// SourceClip is one raw video on local disk, ready for upload.
type SourceClip struct {
	Path     string
	MIMEType string
}

// Selector produces an edit decision list for a set of source clips.
type Selector interface {
	Select(ctx context.Context, clips []SourceClip) (edl.List, error)
}

// GeminiSelector implements Selector against the Gemini API.
type GeminiSelector struct {
	client       *genai.Client
	model        string
	pollInterval time.Duration
	// sleep is swapped out in tests so retry backoff can be observed
	// without waiting.
	sleep func(time.Duration)
}

// NewGemini returns a selector using the given client. An empty model falls
// back to DefaultModel; a non-positive pollInterval falls back to 2s.
func NewGemini(client *genai.Client, model string, pollInterval time.Duration) *GeminiSelector {
	if model == "" {
		model = DefaultModel
	}
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	return &GeminiSelector{
		client:       client,
		model:        model,
		pollInterval: pollInterval,
		sleep:        time.Sleep,
	}
}

// Select uploads every clip, waits for processing, asks the model for keep
// segments in a single call, and parses the JSON reply. Uploaded files are
// deleted from the API before returning, on success and failure alike.
func (s *GeminiSelector) Select(ctx context.Context, clips []SourceClip) (edl.List, error) {
	log.Info().
		Int("clips", len(clips)).
		Str("model", s.model).
		Msg("Starting footage analysis with Gemini")

	uploaded, err := s.uploadClips(ctx, clips)
	defer s.cleanupFiles(ctx, uploaded)
	if err != nil {
		return nil, err
	}

	parts := make([]*genai.Part, 0, len(uploaded)+1)
	parts = append(parts, &genai.Part{Text: assets.PerfectCutPrompt})
	for _, f := range uploaded {
		parts = append(parts, &genai.Part{
			FileData: &genai.FileData{FileURI: f.URI, MIMEType: f.MIMEType},
		})
	}
	contents := []*genai.Content{{Role: "user", Parts: parts}}

	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(float32(0.7)),
		TopP:             genai.Ptr(float32(0.95)),
		TopK:             genai.Ptr(float32(64)),
		MaxOutputTokens:  8192,
		ResponseMIMEType: "application/json",
	}

	raw, err := s.generateWithRetry(ctx, func() (string, error) {
		geminiStart := time.Now()
		resp, err := s.client.Models.GenerateContent(ctx, s.model, contents, config)
		geminiElapsed := time.Since(geminiStart)

		m := metrics.New("ReelDirector").
			Dimension("Operation", "analyze").
			Metric("GeminiApiLatencyMs", float64(geminiElapsed.Milliseconds()), metrics.UnitMilliseconds).
			Count("GeminiApiCalls")
		if err != nil {
			m.Count("GeminiApiErrors")
		}
		if resp != nil && resp.UsageMetadata != nil {
			m.Metric("GeminiInputTokens", float64(resp.UsageMetadata.PromptTokenCount), metrics.UnitCount)
			m.Metric("GeminiOutputTokens", float64(resp.UsageMetadata.CandidatesTokenCount), metrics.UnitCount)
		}
		m.Flush()

		if err != nil {
			return "", err
		}
		if resp == nil {
			return "", fmt.Errorf("received empty response from Gemini API")
		}
		return resp.Text(), nil
	})
	if err != nil {
		return nil, err
	}

	segments, err := jsonutil.ParseArray[edl.Segment](raw)
	if err != nil {
		mErr := &MalformedResponseError{Raw: raw, Err: err}
		log.Error().
			Err(err).
			Int("response_length", len(raw)).
			Str("raw_response", mErr.Snippet()).
			Msg("Failed to parse segment list from model response")
		return nil, mErr
	}

	list := edl.List(segments)
	log.Info().
		Int("segments", len(list)).
		Float64("total_duration", list.TotalDuration()).
		Msg("Analysis complete")
	return list, nil
}

// uploadClips pushes each clip through the Files API and waits until every
// file leaves the processing state. The returned slice holds whatever was
// uploaded before a failure so the caller can clean up.
func (s *GeminiSelector) uploadClips(ctx context.Context, clips []SourceClip) ([]*genai.File, error) {
	uploaded := make([]*genai.File, 0, len(clips))
	for _, clip := range clips {
		f, err := os.Open(clip.Path)
		if err != nil {
			return uploaded, &FileProcessingError{Path: clip.Path, Err: err}
		}

		uploadStart := time.Now()
		file, err := s.client.Files.Upload(ctx, f, &genai.UploadFileConfig{
			MIMEType: clip.MIMEType,
		})
		f.Close()
		if err != nil {
			return uploaded, &FileProcessingError{Path: clip.Path, Err: err}
		}
		uploaded = append(uploaded, file)

		log.Debug().
			Str("path", clip.Path).
			Str("name", file.Name).
			Dur("upload_duration", time.Since(uploadStart)).
			Msg("Clip uploaded, waiting for processing...")

		deadline := time.Now().Add(uploadTimeout)
		for file.State == genai.FileStateProcessing {
			if time.Now().After(deadline) {
				return uploaded, &FileProcessingError{
					Path: clip.Path,
					Err:  fmt.Errorf("timeout waiting for processing after %v", uploadTimeout),
				}
			}
			s.sleep(s.pollInterval)

			file, err = s.client.Files.Get(ctx, file.Name, nil)
			if err != nil {
				return uploaded, &FileProcessingError{Path: clip.Path, Err: fmt.Errorf("failed to get file state: %w", err)}
			}
		}
		if file.State != genai.FileStateActive {
			return uploaded, &FileProcessingError{Path: clip.Path, Err: fmt.Errorf("processing ended in state %s", file.State)}
		}

		log.Debug().
			Str("name", file.Name).
			Str("state", string(file.State)).
			Msg("Clip ready for inference")
	}
	return uploaded, nil
}

// cleanupFiles deletes uploaded files from the API. Failures are logged only;
// Gemini expires uploads on its own after 48 hours.
func (s *GeminiSelector) cleanupFiles(ctx context.Context, files []*genai.File) {
	for _, f := range files {
		if _, err := s.client.Files.Delete(ctx, f.Name, nil); err != nil {
			log.Warn().Err(err).Str("name", f.Name).Msg("Failed to delete uploaded file")
		}
	}
}
