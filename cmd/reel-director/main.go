// Command reel-director turns raw footage into a polished vertical reel from
// the terminal: analyze clips with Gemini, print the resulting cut list, and
// render the final video.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"google.golang.org/genai"

	"github.com/fpang/reel-director/internal/assembler"
	"github.com/fpang/reel-director/internal/auth"
	"github.com/fpang/reel-director/internal/config"
	"github.com/fpang/reel-director/internal/edl"
	"github.com/fpang/reel-director/internal/logging"
	"github.com/fpang/reel-director/internal/pipeline"
	"github.com/fpang/reel-director/internal/selector"
)

// CLI flags
var (
	videoFlags     []string
	musicFlag      string
	filterFlag     string
	transitionFlag string
	outputFlag     string
	modelFlag      string
	apiKeyFlag     string
	configFlag     string
)

var rootCmd = &cobra.Command{
	Use:   "reel-director",
	Short: "AI-powered viral reel generator",
	Long: `Reel Director analyzes raw footage with Gemini, cuts out stumbles, dead air,
and bad takes, and stitches the best segments into a vertical 1080x1920 reel
with optional color filters, fade transitions, and background music.

Examples:
  reel-director -v take1.mp4
  reel-director -v intro.mov -v demo.mp4 -f cinematic -t fade-in-out
  reel-director -v clip.mp4 --music beat.mp3 -o out/reel.mp4
  reel-director -v clip.mp4 --model gemini-2.5-flash`,
	RunE: runMain,
}

func init() {
	rootCmd.Flags().StringArrayVarP(&videoFlags, "video", "v", nil, "Raw video file to include (repeatable, up to 4, .mp4 or .mov)")
	rootCmd.Flags().StringVar(&musicFlag, "music", "", "Background music file (.mp3), looped and mixed at low volume")
	rootCmd.Flags().StringVarP(&filterFlag, "filter", "f", "", "Color filter: none, black-and-white, vibrant, cinematic, vintage")
	rootCmd.Flags().StringVarP(&transitionFlag, "transition", "t", "", "Transition: none, crossfade, fade-in-out")
	rootCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output path (default viral_reel.mp4 in the configured output dir)")
	rootCmd.Flags().StringVarP(&modelFlag, "model", "m", "", "Gemini model to use (default from config or GEMINI_MODEL)")
	rootCmd.Flags().StringVar(&apiKeyFlag, "api-key", "", "Gemini API key (default GEMINI_API_KEY env or .env)")
	rootCmd.Flags().StringVar(&configFlag, "config", "reel-director.toml", "Path to TOML config file")
	_ = rootCmd.MarkFlagRequired("video")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMain(cmd *cobra.Command, args []string) error {
	// Errors are logged here; keep cobra from printing them a second time.
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	logging.Init()

	cfg, err := config.Load(configFlag)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}

	apiKey, err := auth.GetAPIKey(apiKeyFlag)
	if err != nil {
		log.Error().Err(err).Msg("No API key available")
		return err
	}

	filter, err := assembler.ParseFilter(pick(filterFlag, cfg.Render.DefaultFilter))
	if err != nil {
		return err
	}
	transition, err := assembler.ParseTransition(pick(transitionFlag, cfg.Render.DefaultTransition))
	if err != nil {
		return err
	}

	if len(videoFlags) > cfg.Render.MaxVideos {
		return fmt.Errorf("at most %d videos are supported, got %d", cfg.Render.MaxVideos, len(videoFlags))
	}

	videos := make([]pipeline.Upload, 0, len(videoFlags))
	var openFiles []*os.File
	defer func() {
		for _, f := range openFiles {
			f.Close()
		}
	}()
	for _, path := range videoFlags {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("cannot open video %s: %w", path, err)
		}
		openFiles = append(openFiles, f)
		videos = append(videos, pipeline.Upload{Name: filepath.Base(path), Data: f})
	}

	var music *pipeline.Upload
	if musicFlag != "" {
		f, err := os.Open(musicFlag)
		if err != nil {
			return fmt.Errorf("cannot open music %s: %w", musicFlag, err)
		}
		openFiles = append(openFiles, f)
		music = &pipeline.Upload{Name: filepath.Base(musicFlag), Data: f}
	}

	output := outputFlag
	if output == "" {
		output = filepath.Join(cfg.Render.OutputDir, "viral_reel.mp4")
	}

	model := pick(modelFlag, os.Getenv("GEMINI_MODEL"))
	model = pick(model, cfg.Gemini.Model)

	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to create Gemini client")
		return err
	}

	pollInterval := time.Duration(cfg.Gemini.PollIntervalSeconds) * time.Second
	p := pipeline.New(selector.NewGemini(client, model, pollInterval))
	res, err := p.Run(ctx, pipeline.Request{
		Videos:     videos,
		Music:      music,
		Filter:     filter,
		Transition: transition,
		OutputPath: output,
	})
	if err != nil {
		var malformed *selector.MalformedResponseError
		if errors.As(err, &malformed) {
			log.Error().Err(err).Str("raw_response", malformed.Snippet()).Msg("Reel generation failed")
		} else {
			log.Error().Err(err).Msg("Reel generation failed")
		}
		return err
	}

	printCutList(res.Segments)
	fmt.Printf("\nReel written to %s\n", res.OutputPath)
	return nil
}

// printCutList renders the chosen segments as a terminal table.
func printCutList(list edl.List) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Source", "Start", "End", "Reason"})
	for i, seg := range list {
		t.AppendRow(table.Row{
			i + 1,
			seg.SourceIndex,
			fmt.Sprintf("%.2fs", seg.StartTime),
			fmt.Sprintf("%.2fs", seg.EndTime),
			seg.Reason,
		})
	}
	t.AppendFooter(table.Row{"", "", "", "Total", fmt.Sprintf("%.1fs", list.TotalDuration())})
	t.Render()
}

// pick returns the first non-empty value.
func pick(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
