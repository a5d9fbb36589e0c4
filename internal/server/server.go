package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/veriscope/veriscope/internal/utils"
	"github.com/veriscope/veriscope/pkg/news"
	"github.com/veriscope/veriscope/pkg/pipeline"
	"github.com/veriscope/veriscope/pkg/storage"
)

type Server struct {
	DB       *storage.DB
	Runner   *pipeline.Runner
	Sources  []news.Source
	Username string
	Password string
}

func New(db *storage.DB, runner *pipeline.Runner, sources []news.Source, user, pass string) *Server {
	return &Server{
		DB:       db,
		Runner:   runner,
		Sources:  sources,
		Username: user,
		Password: pass,
	}
}

func (s *Server) Start(addr string) error {
	utils.Log.Infof("Starting server on %s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// Handler builds the full route table. Split from Start so tests can
// drive it through httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// API Group
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("POST /api/analysis", s.basicAuth(s.handleAnalyze))
	mux.HandleFunc("GET /api/analysis/{id}", s.basicAuth(s.handleAnalysisByID))
	mux.HandleFunc("POST /api/profile/advance", s.basicAuth(s.handleAdvance))
	mux.HandleFunc("GET /api/profile", s.basicAuth(s.handleProfile))
	mux.HandleFunc("GET /api/leaderboard", s.basicAuth(s.handleLeaderboard))
	mux.HandleFunc("GET /api/history", s.basicAuth(s.handleHistory))
	mux.HandleFunc("GET /api/stats", s.basicAuth(s.handleStats))
	mux.HandleFunc("GET /api/news", s.basicAuth(s.handleNews))
	mux.HandleFunc("POST /api/news/refresh", s.basicAuth(s.handleNewsRefresh))
	mux.HandleFunc("GET /api/sources", s.basicAuth(s.handleSources))
	mux.HandleFunc("GET /api/config/progression", s.basicAuth(s.handleProgressionConfig))

	// Prometheus scrapes stay unauthenticated.
	mux.Handle("GET /metrics", promhttp.Handler())

	return mux
}

func (s *Server) basicAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Username == "" && s.Password == "" {
			next(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.Username || pass != s.Password {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}
