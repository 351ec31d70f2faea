package server

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"

	"filmlens/internal/config"
	"filmlens/internal/pipeline"
)

//go:embed templates/*.html
var templateFS embed.FS

var md = goldmark.New()

// maxUploadBytes caps the accepted archive size.
const maxUploadBytes = 64 << 20

// Report is one finished analysis held for viewing. ID is a uuid,
// Generation the upload counter value when the analysis started; a
// slower analysis from an older upload must never replace a newer one.
type Report struct {
	ID         string
	Generation uint64
	Result     *pipeline.Result
}

// Server is the local web UI: an upload form plus report pages.
type Server struct {
	cfg   *config.Config
	pipe  *pipeline.Pipeline
	pages map[string]*template.Template
	mux   *http.ServeMux

	uploads atomic.Uint64

	mu      sync.Mutex
	current *Report
}

// New creates a new Server.
func New(cfg *config.Config, pipe *pipeline.Pipeline) (*Server, error) {
	funcMap := template.FuncMap{
		"markdown": renderMarkdown,
	}

	// Parse base template first, then clone it per page so that each
	// page gets its own {{define "content"}}.
	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	pageNames := []string{"index.html", "report.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		if _, err := clone.ParseFS(templateFS, "templates/"+name); err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	s := &Server{cfg: cfg, pipe: pipe, pages: pages, mux: http.NewServeMux()}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/upload", s.handleUpload)
	s.mux.HandleFunc("/report/", s.handleReport)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	s.mu.Lock()
	current := s.current
	s.mu.Unlock()

	s.render(w, "index.html", map[string]any{
		"Current": current,
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("archive")
	if err != nil {
		http.Error(w, "missing archive upload", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "reading upload", http.StatusBadRequest)
		return
	}

	label := strings.TrimSuffix(filepath.Base(header.Filename), filepath.Ext(header.Filename))

	// Tag the upload before analysis starts so a stale run can be
	// recognized when it finishes.
	generation := s.uploads.Add(1)
	rep := &Report{
		ID:         uuid.NewString(),
		Generation: generation,
	}

	rep.Result = s.pipe.Run(r.Context(), data, label)
	if rep.Result.Failed() {
		for _, step := range rep.Result.Steps {
			if step.Err != nil {
				http.Error(w, fmt.Sprintf("import failed: %v", step.Err), http.StatusBadRequest)
				return
			}
		}
	}

	if !s.install(rep) {
		// A newer upload finished first; discard this one.
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	http.Redirect(w, r, "/report/"+rep.ID, http.StatusFound)
}

// install makes a finished report current unless a newer upload already
// produced one. Returns false when the report is stale.
func (s *Server) install(rep *Report) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil && s.current.Generation > rep.Generation {
		return false
	}
	s.current = rep
	return true
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/report/")
	id, wantJSON := strings.CutSuffix(rest, ".json")
	if id == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	s.mu.Lock()
	current := s.current
	s.mu.Unlock()

	if current == nil || current.ID != id {
		http.NotFound(w, r)
		return
	}

	if wantJSON {
		s.renderJSON(w, current)
		return
	}

	s.render(w, "report.html", map[string]any{
		"Report":     current,
		"Markdown":   current.Result.ReportMarkdown,
		"Commentary": current.Result.Commentary,
	})
}

func (s *Server) renderJSON(w http.ResponseWriter, rep *Report) {
	payload := map[string]any{
		"label":   rep.Result.Label,
		"films":   rep.Result.Films,
		"anomaly": rep.Result.Anomaly,
		"debug":   rep.Result.Debug,
		"stats":   rep.Result.Stats,
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Error encoding report JSON: %v", err)
	}
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		log.Printf("Template %s not found", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		log.Printf("Error rendering template %s: %v", name, err)
	}
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

// Serve starts the HTTP server on the given port.
func Serve(cfg *config.Config, pipe *pipeline.Pipeline, port int) error {
	srv, err := New(cfg, pipe)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	log.Printf("Server listening on http://%s", addr)
	return http.ListenAndServe(addr, srv.Handler())
}
