package link

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/sdejongh/devsync/internal/platform"
	"github.com/sdejongh/devsync/pkg/logging"
)

// maxUpload bounds a single uploaded file
const maxUpload = 2 << 30

// Server serves a Link over the device protocol:
//
//	GET  /list/{dir...}   JSON array of FileInfo
//	GET  /file/{path...}  raw content
//	PUT  /file/{path...}  raw content, X-Modified-At header
//	POST /notify/{event}
type Server struct {
	link   Link
	logger logging.Logger
	mux    *http.ServeMux

	// OnNotify, when set, runs after each delivered notification
	OnNotify func(event string)
}

// NewServer creates a server exposing l
func NewServer(l Link, logger logging.Logger) *Server {
	s := &Server{
		link:   l,
		logger: logging.OrNull(logger).WithFields(logging.Fields{"component": "link_server"}),
		mux:    http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /list/{dir...}", s.handleList)
	s.mux.HandleFunc("GET /file/{path...}", s.handleGet)
	s.mux.HandleFunc("PUT /file/{path...}", s.handlePut)
	s.mux.HandleFunc("POST /notify/{event}", s.handleNotify)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	files, err := s.link.ListFiles(r.Context(), r.PathValue("dir"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(files); err != nil {
		s.logger.Warn(r.Context(), "failed to write listing", logging.Fields{"error": err.Error()})
	}
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	data, err := s.link.GetFile(r.Context(), r.PathValue("path"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(data)
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	var modTime time.Time
	if v := r.Header.Get(HeaderModifiedAt); v != "" {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			http.Error(w, "invalid "+HeaderModifiedAt+" header", http.StatusBadRequest)
			return
		}
		modTime = t
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUpload))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "file too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	if err := s.link.PutFile(r.Context(), r.PathValue("path"), data, modTime); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleNotify(w http.ResponseWriter, r *http.Request) {
	event := r.PathValue("event")
	if err := s.link.SendNotification(r.Context(), event); err != nil {
		s.fail(w, r, err)
		return
	}
	if s.OnNotify != nil {
		s.OnNotify(event)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var pathErr *platform.PathError
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.As(err, &pathErr):
		http.Error(w, pathErr.Error(), http.StatusBadRequest)
	default:
		s.logger.Error(r.Context(), "request failed", err, logging.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		})
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
