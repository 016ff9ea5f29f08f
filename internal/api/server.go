package api

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Mamadiarrabousso/Aquiferpulse/internal/briefgen"
	"github.com/Mamadiarrabousso/Aquiferpulse/internal/store"
)

//go:embed templates/*
var templateFS embed.FS

type Server struct {
	store      *store.Store
	port       string
	loc        *time.Location
	tmpl       *template.Template
	basinsPath string
	briefCache *briefgen.Cache
	genMu      sync.Mutex // Prevents concurrent generation of the same card
}

func NewServer(store *store.Store, port string, loc *time.Location, basinsPath, briefDir string) *Server {
	funcs := template.FuncMap{
		"upper": strings.ToUpper,
		"deref": func(f *float64) float64 {
			if f == nil {
				return 0
			}
			return *f
		},
		"classLabel": func(class string) string {
			if class == "" {
				return "no-data"
			}
			return class
		},
	}
	tmpl := template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))

	return &Server{
		store:      store,
		port:       port,
		loc:        loc,
		tmpl:       tmpl,
		basinsPath: basinsPath,
		briefCache: briefgen.NewCache(briefDir),
	}
}

// BriefCache returns the brief artifact cache.
func (s *Server) BriefCache() *briefgen.Cache {
	return s.briefCache
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/partials/top10", s.handleTop10Partial)
	mux.HandleFunc("/partials/summary", s.handleSummaryPartial)
	mux.HandleFunc("/asi/latest", s.handleLatest)
	mux.HandleFunc("/asi/at", s.handleAt)
	mux.HandleFunc("/asi/top10", s.handleTop10)
	mux.HandleFunc("/asi/summary", s.handleSummary)
	mux.HandleFunc("/asi/latest_date", s.handleLatestDate)
	mux.HandleFunc("/asi/date_range", s.handleDateRange)
	mux.HandleFunc("/asi/history", s.handleHistory)
	mux.HandleFunc("/brief/card", s.handleBriefCard)
	// Aliases kept for dashboards built against the old route layout.
	mux.HandleFunc("/api/asi", s.handleLatest)
	mux.HandleFunc("/api/asi_at", s.handleAt)
	mux.HandleFunc("/api/summary", s.handleSummary)
	mux.HandleFunc("/api/top10", s.handleTop10)
	mux.Handle("/metrics", promhttp.Handler())
	return corsHandler(mux)
}

// corsHandler allows the dashboard to be served from anywhere. The API is
// read only, so a permissive policy is fine.
func corsHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    ":" + s.port,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
