package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fpang/reel-director/internal/assembler"
	"github.com/fpang/reel-director/internal/edl"
	"github.com/fpang/reel-director/internal/selector"
)

type stubSelector struct {
	list  edl.List
	err   error
	clips []selector.SourceClip
}

func (s *stubSelector) Select(_ context.Context, clips []selector.SourceClip) (edl.List, error) {
	s.clips = clips
	return s.list, s.err
}

type stubAssembler struct {
	err     error
	workDir string
	sources []string
	output  string
	opts    assembler.Options
}

func (a *stubAssembler) Assemble(_ context.Context, _ edl.List, sources []string, outputPath string, opts assembler.Options) error {
	a.sources = sources
	a.output = outputPath
	a.opts = opts
	return a.err
}

func newTestPipeline(sel *stubSelector, asm *stubAssembler) *Pipeline {
	return &Pipeline{
		selector: sel,
		newAssembler: func(workDir string) ReelAssembler {
			asm.workDir = workDir
			return asm
		},
	}
}

func TestRun_HappyPath(t *testing.T) {
	sel := &stubSelector{list: edl.List{{SourceIndex: 0, StartTime: 1, EndTime: 3, Reason: "good take"}}}
	asm := &stubAssembler{}
	p := newTestPipeline(sel, asm)

	var stages []Stage
	out := filepath.Join(t.TempDir(), "viral_reel.mp4")
	res, err := p.Run(context.Background(), Request{
		Progress: func(s Stage) { stages = append(stages, s) },
		Videos: []Upload{
			{Name: "take1.mp4", Data: strings.NewReader("video-a")},
			{Name: "take2.MOV", Data: strings.NewReader("video-b")},
		},
		Music:      &Upload{Name: "beat.mp3", Data: strings.NewReader("music")},
		Filter:     assembler.FilterVibrant,
		Transition: assembler.TransitionCrossfade,
		OutputPath: out,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.OutputPath != out {
		t.Errorf("output path: got %q", res.OutputPath)
	}
	if len(res.Segments) != 1 {
		t.Errorf("expected 1 segment, got %d", len(res.Segments))
	}

	if len(sel.clips) != 2 {
		t.Fatalf("expected 2 clips sent for analysis, got %d", len(sel.clips))
	}
	if sel.clips[0].MIMEType != "video/mp4" {
		t.Errorf("clip 0 mime: got %q", sel.clips[0].MIMEType)
	}
	if sel.clips[1].MIMEType != "video/quicktime" {
		t.Errorf("clip 1 mime: got %q", sel.clips[1].MIMEType)
	}

	if len(asm.sources) != 2 {
		t.Errorf("expected 2 sources passed to assembly, got %d", len(asm.sources))
	}
	if asm.opts.Filter != assembler.FilterVibrant || asm.opts.Transition != assembler.TransitionCrossfade {
		t.Errorf("options not forwarded: %+v", asm.opts)
	}
	if asm.opts.MusicPath == "" {
		t.Error("music path not forwarded")
	}

	if len(stages) != 2 || stages[0] != StageAnalyzing || stages[1] != StageRendering {
		t.Errorf("unexpected stage sequence %v", stages)
	}

	// Workspace must be gone after the run.
	if asm.workDir == "" {
		t.Fatal("assembler never received a work dir")
	}
	if _, err := os.Stat(asm.workDir); !os.IsNotExist(err) {
		t.Errorf("workspace %s still exists after run", asm.workDir)
	}
}

func TestRun_NoMusic(t *testing.T) {
	sel := &stubSelector{list: edl.List{{SourceIndex: 0, StartTime: 0, EndTime: 2}}}
	asm := &stubAssembler{}
	p := newTestPipeline(sel, asm)

	_, err := p.Run(context.Background(), Request{
		Videos:     []Upload{{Name: "clip.mp4", Data: strings.NewReader("video")}},
		OutputPath: filepath.Join(t.TempDir(), "out.mp4"),
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if asm.opts.MusicPath != "" {
		t.Errorf("unexpected music path %q", asm.opts.MusicPath)
	}
}

func TestRun_RejectsBadRequests(t *testing.T) {
	sel := &stubSelector{}
	asm := &stubAssembler{}
	p := newTestPipeline(sel, asm)
	out := filepath.Join(t.TempDir(), "out.mp4")

	if _, err := p.Run(context.Background(), Request{OutputPath: out}); err == nil {
		t.Error("expected error for zero videos")
	}

	five := make([]Upload, 5)
	for i := range five {
		five[i] = Upload{Name: "v.mp4", Data: strings.NewReader("x")}
	}
	if _, err := p.Run(context.Background(), Request{Videos: five, OutputPath: out}); err == nil {
		t.Error("expected error for too many videos")
	}

	avi := []Upload{{Name: "clip.avi", Data: strings.NewReader("x")}}
	if _, err := p.Run(context.Background(), Request{Videos: avi, OutputPath: out}); err == nil {
		t.Error("expected error for unsupported container")
	}

	ok := []Upload{{Name: "clip.mp4", Data: strings.NewReader("x")}}
	if _, err := p.Run(context.Background(), Request{Videos: ok}); err == nil {
		t.Error("expected error for missing output path")
	}
}

func TestRun_SelectorFailurePropagates(t *testing.T) {
	wantErr := errors.New("analysis exploded")
	sel := &stubSelector{err: wantErr}
	asm := &stubAssembler{}
	p := newTestPipeline(sel, asm)

	_, err := p.Run(context.Background(), Request{
		Videos:     []Upload{{Name: "clip.mp4", Data: strings.NewReader("x")}},
		OutputPath: filepath.Join(t.TempDir(), "out.mp4"),
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected selector error, got %v", err)
	}
	if asm.sources != nil {
		t.Error("assembly must not run after analysis failure")
	}
}

func TestRun_AssemblerFailurePropagates(t *testing.T) {
	sel := &stubSelector{list: edl.List{{SourceIndex: 0, StartTime: 0, EndTime: 2}}}
	asm := &stubAssembler{err: assembler.ErrNoValidSegments}
	p := newTestPipeline(sel, asm)

	_, err := p.Run(context.Background(), Request{
		Videos:     []Upload{{Name: "clip.mp4", Data: strings.NewReader("x")}},
		OutputPath: filepath.Join(t.TempDir(), "out.mp4"),
	})
	if !errors.Is(err, assembler.ErrNoValidSegments) {
		t.Fatalf("expected assembly error, got %v", err)
	}
	if _, statErr := os.Stat(asm.workDir); !os.IsNotExist(statErr) {
		t.Errorf("workspace %s still exists after failed run", asm.workDir)
	}
}

func TestVideoMIMEType(t *testing.T) {
	if mime, err := videoMIMEType("a.MP4"); err != nil || mime != "video/mp4" {
		t.Errorf("MP4: got %q, %v", mime, err)
	}
	if mime, err := videoMIMEType("b.mov"); err != nil || mime != "video/quicktime" {
		t.Errorf("mov: got %q, %v", mime, err)
	}
	if _, err := videoMIMEType("c.webm"); err == nil {
		t.Error("webm must be rejected")
	}
}
