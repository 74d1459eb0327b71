package main

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fpang/reel-director/internal/assembler"
	"github.com/fpang/reel-director/internal/config"
	"github.com/fpang/reel-director/internal/pipeline"
	"github.com/fpang/reel-director/internal/selector"
	"github.com/fpang/reel-director/internal/store"
)

//go:embed web
var webFS embed.FS

// jobQueueSize bounds the number of accepted-but-unstarted renders.
const jobQueueSize = 16

// reelRunner abstracts the pipeline for handler tests.
type reelRunner interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

// jobRequest carries one queued render. Uploads are already persisted under
// dir; the worker removes dir when the render finishes.
type jobRequest struct {
	id         string
	dir        string
	videoPaths []string
	musicPath  string
	filter     assembler.Filter
	transition assembler.Transition
}

type server struct {
	cfg     config.Config
	store   *store.Store
	runner  reelRunner
	dataDir string
	jobs    chan jobRequest
}

func newServer(cfg config.Config, st *store.Store, runner reelRunner, dataDir string) *server {
	return &server{
		cfg:     cfg,
		store:   st,
		runner:  runner,
		dataDir: dataDir,
		jobs:    make(chan jobRequest, jobQueueSize),
	}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/health", s.handleHealth)
	r.Route("/api/jobs", func(r chi.Router) {
		r.Post("/", s.handleCreateJob)
		r.Get("/", s.handleListJobs)
		r.Get("/{id}", s.handleGetJob)
		r.Get("/{id}/download", s.handleDownload)
	})

	webSub, err := fs.Sub(webFS, "web")
	if err != nil {
		panic(err)
	}
	r.Handle("/*", http.FileServer(http.FS(webSub)))

	return r
}

// requestLogger emits one structured line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Msg("Request handled")
	})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleCreateJob accepts a multipart upload (videos, optional music, filter,
// transition), persists the files, and queues the render. Responds 202 with
// the job id; progress is polled via GET /api/jobs/{id}.
func (s *server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	maxBytes := int64(s.cfg.Render.MaxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid upload: %v", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	videos := r.MultipartForm.File["videos"]
	if len(videos) == 0 {
		writeError(w, http.StatusBadRequest, "at least one video is required")
		return
	}
	if len(videos) > s.cfg.Render.MaxVideos {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("at most %d videos are supported", s.cfg.Render.MaxVideos))
		return
	}
	for _, fh := range videos {
		ext := strings.ToLower(filepath.Ext(fh.Filename))
		if ext != ".mp4" && ext != ".mov" {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported video format %q, expected .mp4 or .mov", ext))
			return
		}
	}

	filter, err := assembler.ParseFilter(r.FormValue("filter"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	transition, err := assembler.ParseTransition(r.FormValue("transition"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := uuid.NewString()
	uploadDir := filepath.Join(s.dataDir, "uploads", id)
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}

	req := jobRequest{id: id, dir: uploadDir, filter: filter, transition: transition}
	for i, fh := range videos {
		name := fmt.Sprintf("video_%d%s", i, strings.ToLower(filepath.Ext(fh.Filename)))
		path, err := saveUpload(fh, filepath.Join(uploadDir, name))
		if err != nil {
			os.RemoveAll(uploadDir)
			writeError(w, http.StatusInternalServerError, "failed to store upload")
			return
		}
		req.videoPaths = append(req.videoPaths, path)
	}
	if music := r.MultipartForm.File["music"]; len(music) > 0 {
		path, err := saveUpload(music[0], filepath.Join(uploadDir, "music.mp3"))
		if err != nil {
			os.RemoveAll(uploadDir)
			writeError(w, http.StatusInternalServerError, "failed to store upload")
			return
		}
		req.musicPath = path
	}

	if _, err := s.store.Create(r.Context(), id, string(filter), string(transition)); err != nil {
		os.RemoveAll(uploadDir)
		writeError(w, http.StatusInternalServerError, "failed to create job")
		return
	}

	select {
	case s.jobs <- req:
	default:
		os.RemoveAll(uploadDir)
		s.store.MarkFailed(r.Context(), id, "server busy, try again later")
		writeError(w, http.StatusServiceUnavailable, "render queue is full")
		return
	}

	log.Info().
		Str("job_id", id).
		Int("videos", len(req.videoPaths)).
		Bool("has_music", req.musicPath != "").
		Msg("Render job queued")
	writeJSON(w, http.StatusAccepted, map[string]string{"id": id})
}

func (s *server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.store.List(r.Context(), 50)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list jobs")
		return
	}
	if jobs == nil {
		jobs = []*store.Job{}
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (s *server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load job")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *server) handleDownload(w http.ResponseWriter, r *http.Request) {
	job, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load job")
		return
	}
	if job.Status != store.StatusDone || job.OutputPath == "" {
		writeError(w, http.StatusConflict, "reel is not ready yet")
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="viral_reel.mp4"`)
	w.Header().Set("Content-Type", "video/mp4")
	http.ServeFile(w, r, job.OutputPath)
}

// runWorker renders queued jobs one at a time. A single ffmpeg render already
// saturates the machine; serializing keeps memory bounded.
func (s *server) runWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-s.jobs:
			s.processJob(ctx, req)
		}
	}
}

func (s *server) processJob(ctx context.Context, req jobRequest) {
	defer os.RemoveAll(req.dir)

	outputPath := filepath.Join(s.dataDir, "outputs", req.id+".mp4")

	videos := make([]pipeline.Upload, 0, len(req.videoPaths))
	var openFiles []*os.File
	defer func() {
		for _, f := range openFiles {
			f.Close()
		}
	}()
	for _, path := range req.videoPaths {
		f, err := os.Open(path)
		if err != nil {
			s.failJob(ctx, req.id, fmt.Sprintf("upload vanished: %v", err))
			return
		}
		openFiles = append(openFiles, f)
		videos = append(videos, pipeline.Upload{Name: filepath.Base(path), Data: f})
	}

	var music *pipeline.Upload
	if req.musicPath != "" {
		f, err := os.Open(req.musicPath)
		if err != nil {
			s.failJob(ctx, req.id, fmt.Sprintf("upload vanished: %v", err))
			return
		}
		openFiles = append(openFiles, f)
		music = &pipeline.Upload{Name: filepath.Base(req.musicPath), Data: f}
	}

	res, err := s.runner.Run(ctx, pipeline.Request{
		Videos:     videos,
		Music:      music,
		Filter:     req.filter,
		Transition: req.transition,
		OutputPath: outputPath,
		Progress: func(stage pipeline.Stage) {
			var status store.Status
			switch stage {
			case pipeline.StageAnalyzing:
				status = store.StatusAnalyzing
			case pipeline.StageRendering:
				status = store.StatusRendering
			default:
				return
			}
			if err := s.store.SetStatus(ctx, req.id, status); err != nil {
				log.Warn().Err(err).Str("job_id", req.id).Msg("Failed to update job status")
			}
		},
	})
	if err != nil {
		log.Error().Err(err).Str("job_id", req.id).Msg("Render job failed")
		s.failJob(ctx, req.id, jobFailureMessage(err))
		return
	}

	if err := s.store.MarkDone(ctx, req.id, res.OutputPath, res.Segments); err != nil {
		log.Error().Err(err).Str("job_id", req.id).Msg("Failed to mark job done")
		return
	}
	log.Info().Str("job_id", req.id).Str("output", res.OutputPath).Msg("Render job complete")
}

// jobFailureMessage builds the user-facing failure text. Parse failures keep
// the offending model response so the job record is diagnosable.
func jobFailureMessage(err error) string {
	var malformed *selector.MalformedResponseError
	if errors.As(err, &malformed) {
		return fmt.Sprintf("%v (raw response: %s)", err, malformed.Snippet())
	}
	return err.Error()
}

func (s *server) failJob(ctx context.Context, id, message string) {
	if err := s.store.MarkFailed(ctx, id, message); err != nil {
		log.Warn().Err(err).Str("job_id", id).Msg("Failed to record job failure")
	}
}

func saveUpload(fh *multipart.FileHeader, dst string) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	return dst, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
