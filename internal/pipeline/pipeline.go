// Package pipeline runs the full reel workflow: persist uploads, analyze
// footage, and assemble the final video. It owns the temp workspace lifetime.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/fpang/reel-director/internal/assembler"
	"github.com/fpang/reel-director/internal/edl"
	"github.com/fpang/reel-director/internal/selector"
	"github.com/fpang/reel-director/internal/tempfiles"
)

// MaxVideos bounds the number of raw clips per run.
const MaxVideos = 4

// Upload is one user-provided file, identified by its original name.
type Upload struct {
	Name string
	Data io.Reader
}

// Stage identifies the long-running phases of a run for progress reporting.
type Stage string

// Stages reported through Request.Progress.
const (
	StageAnalyzing Stage = "analyzing"
	StageRendering Stage = "rendering"
)

// Request describes one reel render. It is treated as immutable once handed
// to Run.
type Request struct {
	Videos     []Upload
	Music      *Upload
	Filter     assembler.Filter
	Transition assembler.Transition
	OutputPath string
	// Progress, when set, is called as each long-running stage begins.
	Progress func(Stage)
}

// Result reports where the reel landed and which segments made the cut.
type Result struct {
	OutputPath string
	Segments   edl.List
}

// ReelAssembler renders an edit decision list into a finished video.
type ReelAssembler interface {
	Assemble(ctx context.Context, list edl.List, sources []string, outputPath string, opts assembler.Options) error
}

// Pipeline wires a selector to an assembler. newAssembler receives the temp
// workspace directory so intermediates land next to the persisted uploads.
type Pipeline struct {
	selector     selector.Selector
	newAssembler func(workDir string) ReelAssembler
}

// New creates a Pipeline using the production assembler.
func New(sel selector.Selector) *Pipeline {
	return &Pipeline{
		selector: sel,
		newAssembler: func(workDir string) ReelAssembler {
			return assembler.New(workDir)
		},
	}
}

// Run executes the workflow for one request. The temp workspace is removed
// before returning on every path; only the output file survives.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	if len(req.Videos) == 0 {
		return nil, fmt.Errorf("at least one video is required")
	}
	if len(req.Videos) > MaxVideos {
		return nil, fmt.Errorf("at most %d videos are supported, got %d", MaxVideos, len(req.Videos))
	}
	if req.OutputPath == "" {
		return nil, fmt.Errorf("output path is required")
	}

	ws, err := tempfiles.NewWorkspace()
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	defer ws.Cleanup()

	clips := make([]selector.SourceClip, 0, len(req.Videos))
	sources := make([]string, 0, len(req.Videos))
	for i, v := range req.Videos {
		mime, err := videoMIMEType(v.Name)
		if err != nil {
			return nil, err
		}
		name := fmt.Sprintf("source_%d%s", i, strings.ToLower(filepath.Ext(v.Name)))
		path, err := ws.Persist(name, v.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to persist %s: %w", v.Name, err)
		}
		clips = append(clips, selector.SourceClip{Path: path, MIMEType: mime})
		sources = append(sources, path)
	}

	musicPath := ""
	if req.Music != nil {
		musicPath, err = ws.Persist("music"+strings.ToLower(filepath.Ext(req.Music.Name)), req.Music.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to persist %s: %w", req.Music.Name, err)
		}
	}

	if req.Progress != nil {
		req.Progress(StageAnalyzing)
	}
	list, err := p.selector.Select(ctx, clips)
	if err != nil {
		return nil, err
	}

	log.Info().
		Int("segments", len(list)).
		Str("filter", string(req.Filter)).
		Str("transition", string(req.Transition)).
		Msg("Starting assembly")

	if req.Progress != nil {
		req.Progress(StageRendering)
	}
	asm := p.newAssembler(ws.Dir())
	err = asm.Assemble(ctx, list, sources, req.OutputPath, assembler.Options{
		Filter:     req.Filter,
		Transition: req.Transition,
		MusicPath:  musicPath,
	})
	if err != nil {
		return nil, err
	}

	return &Result{OutputPath: req.OutputPath, Segments: list}, nil
}

// videoMIMEType maps an upload name to its Gemini MIME type. Only mp4 and
// mov containers are accepted.
func videoMIMEType(name string) (string, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp4":
		return "video/mp4", nil
	case ".mov":
		return "video/quicktime", nil
	}
	return "", fmt.Errorf("unsupported video format %q, expected .mp4 or .mov", filepath.Ext(name))
}
