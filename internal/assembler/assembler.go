// Package assembler turns an edit decision list plus source files into a
// single encoded vertical reel. All heavy lifting is delegated to ffmpeg;
// this package owns the geometry math, the filter/transition dispatch, and
// the clip validation rules.
package assembler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/fpang/reel-director/internal/edl"
	"github.com/fpang/reel-director/internal/metrics"
)

// Encoding parameters for every rendered artifact.
const (
	videoCodec    = "libx264"
	audioCodec    = "aac"
	frameRate     = 24
	encoderPreset = "medium"
	encodeThreads = 4
)

// ErrNoValidSegments is returned when every proposed segment failed validation
// or the edit decision list was empty.
var ErrNoValidSegments = errors.New("no valid segments to assemble")

// ProcessingError wraps an ffmpeg or probe failure during assembly.
type ProcessingError struct {
	Stage string
	Err   error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("video processing failed during %s: %v", e.Stage, e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// Options describes the creative choices for one render.
type Options struct {
	Filter     Filter
	Transition Transition
	// MusicPath is an optional background audio file already on disk.
	MusicPath string
}

// Assembler renders reels, writing intermediate clips into its work directory.
// The caller owns the work directory's lifetime.
type Assembler struct {
	workDir string
}

// New creates an Assembler that stores intermediates under workDir.
func New(workDir string) *Assembler {
	return &Assembler{workDir: workDir}
}

// Assemble validates and renders each segment, concatenates the survivors in
// list order, optionally mixes in background music, and writes the final
// encode to outputPath. Invalid segments are skipped; a render failure on a
// valid segment is terminal.
func (a *Assembler) Assemble(ctx context.Context, list edl.List, sources []string, outputPath string, opts Options) error {
	start := time.Now()

	infos := make([]*ClipInfo, len(sources))
	for i, src := range sources {
		info, err := Probe(src)
		if err != nil {
			return &ProcessingError{Stage: "probe", Err: err}
		}
		infos[i] = info
	}

	var clipPaths []string
	for i, seg := range list {
		if seg.SourceIndex < 0 || seg.SourceIndex >= len(sources) {
			log.Warn().Int("segment", i).Int("source_index", seg.SourceIndex).Msg("Segment references unknown source, skipping")
			continue
		}
		clamped := seg.Clamped(infos[seg.SourceIndex].Duration)
		if !clamped.Usable(len(sources)) {
			log.Warn().
				Int("segment", i).
				Float64("start", clamped.StartTime).
				Float64("end", clamped.EndTime).
				Msg("Segment empty or below minimum duration, skipping")
			continue
		}

		if err := ctx.Err(); err != nil {
			return &ProcessingError{Stage: "render", Err: err}
		}

		clipPath := filepath.Join(a.workDir, fmt.Sprintf("clip_%03d.mp4", len(clipPaths)))
		if err := a.renderClip(sources[clamped.SourceIndex], clamped, infos[clamped.SourceIndex], opts, clipPath); err != nil {
			return err
		}
		clipPaths = append(clipPaths, clipPath)

		log.Debug().
			Int("segment", i).
			Str("clip", clipPath).
			Float64("duration", clamped.Duration()).
			Msg("Clip rendered")
	}

	if len(clipPaths) == 0 {
		return ErrNoValidSegments
	}

	concatTarget := outputPath
	if opts.MusicPath != "" {
		concatTarget = filepath.Join(a.workDir, "concat.mp4")
	}
	if err := a.concatClips(clipPaths, concatTarget); err != nil {
		return err
	}

	if opts.MusicPath != "" {
		if err := a.mixBackgroundAudio(concatTarget, opts.MusicPath, outputPath); err != nil {
			return err
		}
	}

	elapsed := time.Since(start)
	metrics.New("ReelDirector").
		Dimension("Operation", "assemble").
		Metric("RenderMs", float64(elapsed.Milliseconds()), metrics.UnitMilliseconds).
		Metric("ClipsRendered", float64(len(clipPaths)), metrics.UnitCount).
		Flush()

	log.Info().
		Int("clips", len(clipPaths)).
		Str("output", outputPath).
		Dur("duration", elapsed).
		Msg("Reel assembled")
	return nil
}

// renderClip extracts one keep-range, normalizes its geometry to 1080x1920,
// applies the configured filter and transition fades, and re-encodes it as a
// uniform intermediate. Sources without audio get a silent track so the
// concat stage always sees matching stream layouts.
func (a *Assembler) renderClip(src string, seg edl.Segment, info *ClipInfo, opts Options, outPath string) error {
	input := ffmpeg.Input(src, ffmpeg.KwArgs{
		"ss": fmt.Sprintf("%.3f", seg.StartTime),
		"t":  fmt.Sprintf("%.3f", seg.Duration()),
	})

	cropW, cropH, x, y := CropRect(info.Width, info.Height)
	video := input.Video().
		Filter("crop", ffmpeg.Args{fmt.Sprintf("%d:%d:%d:%d", cropW, cropH, x, y)}).
		Filter("scale", ffmpeg.Args{fmt.Sprintf("%d:%d", TargetWidth, TargetHeight)})

	if name, arg, ok := colorFilter(opts.Filter); ok {
		video = video.Filter(name, ffmpeg.Args{arg})
	}
	for _, fade := range fadeArgs(opts.Transition, seg.Duration()) {
		video = video.Filter("fade", ffmpeg.Args{fade})
	}

	audio := input.Audio()
	if !info.HasAudio {
		audio = ffmpeg.Input("anullsrc=channel_layout=stereo:sample_rate=44100", ffmpeg.KwArgs{
			"f": "lavfi",
			"t": fmt.Sprintf("%.3f", seg.Duration()),
		}).Audio()
	}

	var stderr bytes.Buffer
	err := ffmpeg.Output([]*ffmpeg.Stream{video, audio}, outPath, encodeArgs()).
		OverWriteOutput().
		WithErrorOutput(&stderr).
		Run()
	if err != nil {
		return &ProcessingError{Stage: "clip render", Err: ffmpegError(err, &stderr)}
	}
	return nil
}

// concatClips joins the normalized intermediates in order. The concat filter
// re-encodes, so clips from sources with differing codecs or dimensions join
// cleanly.
func (a *Assembler) concatClips(clipPaths []string, outPath string) error {
	streams := make([]*ffmpeg.Stream, 0, len(clipPaths)*2)
	for _, p := range clipPaths {
		in := ffmpeg.Input(p)
		streams = append(streams, in.Video(), in.Audio())
	}

	var stderr bytes.Buffer
	err := ffmpeg.Concat(streams, ffmpeg.KwArgs{"v": 1, "a": 1}).
		Output(outPath, encodeArgs()).
		OverWriteOutput().
		WithErrorOutput(&stderr).
		Run()
	if err != nil {
		return &ProcessingError{Stage: "concatenation", Err: ffmpegError(err, &stderr)}
	}
	return nil
}

func encodeArgs() ffmpeg.KwArgs {
	return ffmpeg.KwArgs{
		"c:v":      videoCodec,
		"c:a":      audioCodec,
		"r":        frameRate,
		"preset":   encoderPreset,
		"threads":  encodeThreads,
		"pix_fmt":  "yuv420p",
		"movflags": "+faststart",
	}
}

// ffmpegError attaches captured ffmpeg stderr to the error for diagnosis.
func ffmpegError(err error, stderr *bytes.Buffer) error {
	out := stderr.String()
	if out == "" {
		return err
	}
	const maxOutput = 2000
	if len(out) > maxOutput {
		out = out[len(out)-maxOutput:]
	}
	return fmt.Errorf("%w\nffmpeg output: %s", err, out)
}
