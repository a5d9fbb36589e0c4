package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/veriscope/veriscope/internal/utils"
	"github.com/veriscope/veriscope/pkg/evaluation"
	"github.com/veriscope/veriscope/pkg/news"
	"github.com/veriscope/veriscope/pkg/progression"
	"github.com/veriscope/veriscope/pkg/sources"
	"github.com/veriscope/veriscope/pkg/storage"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type AnalysisRequest struct {
	Type     string `json:"type"`
	Content  string `json:"content"`
	Estimate *int   `json:"estimate,omitempty"`
	Username string `json:"username,omitempty"`
}

type AnalysisResponse struct {
	Evaluation  *evaluation.FinalEvaluation `json:"evaluation"`
	Progression *progression.Result         `json:"progression,omitempty"`
	Warning     string                      `json:"warning,omitempty"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	item := evaluation.ContentItem{
		Type:    evaluation.ContentType(req.Type),
		Payload: req.Content,
	}
	eval, err := s.Runner.Run(r.Context(), item, req.Estimate)
	if err != nil {
		if errors.Is(err, evaluation.ErrInvalidInput) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := AnalysisResponse{Evaluation: eval}

	// Persistence and XP are best-effort once the analysis itself
	// succeeded: failures surface as a warning, not an error.
	if req.Username != "" {
		if err := s.DB.InsertAnalysis(r.Context(), req.Username, *eval); err != nil {
			utils.Log.Warnf("storing analysis %s failed: %v", eval.ID, err)
			resp.Warning = "analysis completed but could not be stored"
		}
		result, err := s.DB.ApplyAdvance(r.Context(), req.Username, eval.Discrepancy)
		if err != nil {
			utils.Log.Warnf("progression update for %s failed: %v", req.Username, err)
			resp.Warning = "analysis completed but progression was not updated"
		} else {
			resp.Progression = &result
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAnalysisByID(w http.ResponseWriter, r *http.Request) {
	eval, err := s.DB.GetAnalysis(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, storage.ErrAnalysisNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, eval)
}

type AdvanceRequest struct {
	Username    string `json:"username"`
	Discrepancy *int   `json:"discrepancy,omitempty"`
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	var req AdvanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Username == "" {
		http.Error(w, "username is required", http.StatusBadRequest)
		return
	}

	result, err := s.DB.ApplyAdvance(r.Context(), req.Username, req.Discrepancy)
	if err != nil {
		if errors.Is(err, progression.ErrInvalidDiscrepancy) || errors.Is(err, progression.ErrInvalidProfile) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type ProfileResponse struct {
	storage.ProfileRecord
	Progress progression.Progress `json:"progress"`
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		http.Error(w, "username is required", http.StatusBadRequest)
		return
	}

	profile, err := s.DB.GetProfile(r.Context(), username)
	if err != nil {
		if errors.Is(err, storage.ErrProfileNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, ProfileResponse{
		ProfileRecord: profile,
		Progress:      progression.ProgressAt(profile.XP),
	})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := s.DB.Leaderboard(r.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	opts := storage.ListOptions{
		Username: q.Get("username"),
		Verdict:  q.Get("verdict"),
		Limit:    limit,
	}
	if raw := q.Get("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			http.Error(w, "invalid since timestamp (want RFC3339)", http.StatusBadRequest)
			return
		}
		opts.Since = since
	}

	summaries, err := s.DB.ListAnalyses(r.Context(), opts)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.DB.GetStats(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	opts := storage.NewsOptions{
		Verdict:  q.Get("verdict"),
		Language: q.Get("language"),
		Search:   q.Get("search"),
		Limit:    limit,
	}

	items, err := s.DB.ListNews(r.Context(), opts)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleNewsRefresh(w http.ResponseWriter, r *http.Request) {
	added, err := news.Refresh(r.Context(), s.DB, s.Sources)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"added": added})
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	evidence, err := s.DB.ListEvidence(r.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, sources.Collect(evidence))
}

type ProgressionConfig struct {
	Thresholds map[int]int    `json:"thresholds"`
	MaxLevel   int            `json:"max_level"`
	BaseXP     int            `json:"base_xp"`
	Bonuses    map[string]int `json:"bonuses"`
}

func (s *Server) handleProgressionConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ProgressionConfig{
		Thresholds: progression.Thresholds(),
		MaxLevel:   progression.MaxLevel,
		BaseXP:     progression.BaseXP,
		Bonuses:    progression.Bonuses(),
	})
}
