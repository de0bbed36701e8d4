// Package server is the reference cleaning endpoint the dashboard uploads to.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/datawash-cli/internal/cleaner"
	"github.com/KaramelBytes/datawash-cli/internal/dataset"
)

const (
	UploadPath = "/upload"
	HealthPath = "/healthz"
	// RequestIDHeader is echoed from the request or freshly generated.
	RequestIDHeader = "X-Request-Id"
)

// Options configures a Server.
type Options struct {
	Logger   *slog.Logger
	MaxBytes int64
	Clean    cleaner.Options
}

type Server struct {
	log      *slog.Logger
	maxBytes int64
	clean    cleaner.Options
	mux      *http.ServeMux
}

type uploadResponse struct {
	Data  []dataset.Row `json:"data"`
	Stats cleaner.Stats `json:"stats"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func New(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = 32 << 20
	}
	s := &Server{
		log:      log.With("component", "server"),
		maxBytes: opts.MaxBytes,
		clean:    opts.Clean,
		mux:      http.NewServeMux(),
	}
	s.mux.HandleFunc(UploadPath, s.handleUpload)
	s.mux.HandleFunc(HealthPath, s.handleHealth)
	return s
}

// Handler returns the routed handler with request ids attached.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		s.mux.ServeHTTP(sw, r)
		s.log.Info("request", "method", r.Method, "path", r.URL.Path, "status", sw.status,
			"duration", time.Since(start), "request_id", id)
	})
}

// Serve runs the HTTP server on ln until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.log.Info("listening", "addr", ln.Addr().String())
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutCtx); err != nil {
			return err
		}
		s.log.Info("server stopped")
		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBytes)
	f, hdr, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "file too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "No file"})
		return
	}
	defer f.Close()
	if strings.TrimSpace(hdr.Filename) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "No file"})
		return
	}
	data, err := io.ReadAll(f)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "read upload: " + err.Error()})
		return
	}

	res, err := cleaner.CleanFile(hdr.Filename, data, s.clean)
	if err != nil {
		s.log.Warn("cleaning failed", "file", hdr.Filename, "err", err)
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return
	}
	rows := res.Rows
	if rows == nil {
		rows = []dataset.Row{}
	}
	s.log.Info("file cleaned", "file", hdr.Filename, "rows", res.Stats.Rows, "cols", res.Stats.Cols,
		"duplicates", res.Stats.Duplicates, "missing_filled", res.Stats.MissingFilled)
	writeJSON(w, http.StatusOK, uploadResponse{Data: rows, Stats: res.Stats})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
