// Command reel-web serves a browser UI for the reel generator: upload raw
// footage, track render progress, and download the finished reel.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"google.golang.org/genai"

	"github.com/fpang/reel-director/internal/auth"
	"github.com/fpang/reel-director/internal/config"
	"github.com/fpang/reel-director/internal/logging"
	"github.com/fpang/reel-director/internal/pipeline"
	"github.com/fpang/reel-director/internal/selector"
	"github.com/fpang/reel-director/internal/store"
)

// CLI flags
var (
	portFlag   int
	modelFlag  string
	apiKeyFlag string
	configFlag string
)

var rootCmd = &cobra.Command{
	Use:   "reel-web",
	Short: "Web UI for the AI viral reel generator",
	Long: `Reel Web starts a local web server for turning raw footage into polished
vertical reels. Upload up to four clips and optional background music in the
browser, watch the job progress, and download the result.

Examples:
  reel-web
  reel-web --port 9090
  reel-web --model gemini-2.5-flash`,
	Run: runMain,
}

func init() {
	rootCmd.Flags().IntVar(&portFlag, "port", 0, "Port to listen on (default from config)")
	rootCmd.Flags().StringVarP(&modelFlag, "model", "m", "", "Gemini model to use")
	rootCmd.Flags().StringVar(&apiKeyFlag, "api-key", "", "Gemini API key (default GEMINI_API_KEY env or .env)")
	rootCmd.Flags().StringVar(&configFlag, "config", "reel-director.toml", "Path to TOML config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMain(cmd *cobra.Command, args []string) {
	logging.Init()

	cfg, err := config.Load(configFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if portFlag == 0 {
		portFlag = cfg.Server.Port
	}

	apiKey, err := auth.GetAPIKey(apiKeyFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get API key")
	}

	dataDir, err := resolveDataDir(cfg.Server.DataDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to prepare data directory")
	}

	st, err := store.Open(filepath.Join(dataDir, "jobs.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open job store")
	}
	defer st.Close()

	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini client")
	}

	model := modelFlag
	if model == "" {
		model = os.Getenv("GEMINI_MODEL")
	}
	if model == "" {
		model = cfg.Gemini.Model
	}

	pollInterval := time.Duration(cfg.Gemini.PollIntervalSeconds) * time.Second
	srv := newServer(cfg, st, pipeline.New(selector.NewGemini(client, model, pollInterval)), dataDir)

	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	go srv.runWorker(workerCtx)

	httpSrv := &http.Server{
		Addr:         fmt.Sprintf(":%d", portFlag),
		Handler:      srv.routes(),
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info().Msg("Shutting down...")
		stopWorker()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpSrv.Shutdown(shutdownCtx)
	}()

	log.Info().Int("port", portFlag).Str("data_dir", dataDir).Msg("Starting web server")
	fmt.Printf("\n  Reel Director: http://localhost:%d\n\n", portFlag)

	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

// resolveDataDir expands a leading ~ and ensures the directory tree exists.
func resolveDataDir(dir string) (string, error) {
	if strings.HasPrefix(dir, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, strings.TrimPrefix(dir, "~"))
	}
	for _, sub := range []string{"", "uploads", "outputs"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return "", err
		}
	}
	return dir, nil
}
