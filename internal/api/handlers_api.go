package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/Mamadiarrabousso/Aquiferpulse/internal/asi"
	"github.com/Mamadiarrabousso/Aquiferpulse/internal/briefgen"
)

const defaultTopLimit = 10

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	date, covered, err := s.resolveDate("")
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	fc, err := s.collectionForDate(date, covered)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, fc)
}

func (s *Server) handleAt(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "date parameter is required")
		return
	}
	date, _, err := s.resolveDate(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	fc, err := s.collectionForDate(date, true)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, fc)
}

func (s *Server) handleTop10(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := defaultTopLimit
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	// Without an explicit filter only the stressed classes are listed.
	// classes= (present but empty) means no filter.
	rawClasses := "alert,watch"
	if q.Has("classes") {
		rawClasses = q.Get("classes")
	}
	classes := asi.ParseClasses(rawClasses)

	date, covered, err := s.resolveDate(q.Get("date"))
	if err != nil {
		status := http.StatusInternalServerError
		if q.Get("date") != "" {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}

	rows := []asi.RankedBasin{}
	if covered {
		ranked, err := s.rankedForDate(date)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		rows = asi.TopN(ranked, limit, classes)
	}
	writeJSON(w, rows)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	date, covered, err := s.resolveDate(r.URL.Query().Get("date"))
	if err != nil {
		status := http.StatusInternalServerError
		if r.URL.Query().Get("date") != "" {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}
	if !covered {
		writeJSON(w, &SummaryData{Counts: map[string]int{}})
		return
	}
	summary, err := s.summaryForDate(date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, summary)
}

// handleLatestDate reports the newest month in the table, whether or not
// any basin has an index value for it yet.
func (s *Server) handleLatestDate(w http.ResponseWriter, r *http.Request) {
	_, max, ok, err := s.store.GetDateRange()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]any{"latest": nil}
	if ok {
		resp["latest"] = max.Format("2006-01-02")
	}
	writeJSON(w, resp)
}

func (s *Server) handleDateRange(w http.ResponseWriter, r *http.Request) {
	min, max, ok, err := s.store.GetDateRange()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]any{"min": nil, "max": nil}
	if ok {
		resp["min"] = min.Format("2006-01-02")
		resp["max"] = max.Format("2006-01-02")
	}
	writeJSON(w, resp)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	basinID := r.URL.Query().Get("basin_id")
	if basinID == "" {
		writeError(w, http.StatusBadRequest, "basin_id parameter is required")
		return
	}

	b, err := s.store.GetBasin(basinID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if b == nil {
		writeError(w, http.StatusNotFound, "unknown basin "+basinID)
		return
	}

	rows, err := s.store.GetHistory(basinID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	points := make([]HistoryPoint, 0, len(rows))
	for _, m := range rows {
		points = append(points, HistoryPoint{
			Date:     m.Date.Format("2006-01-02"),
			TWSAZ:    round3(m.TWSAZ),
			SMZ:      round3(m.SMZ),
			RainZ:    round3(m.RainZ),
			RainDefZ: round3(m.RainDefZ),
			ASI:      round3(m.ASI),
			Class:    m.Class,
		})
	}
	writeJSON(w, points)
}

type HealthStatus struct {
	Status      string   `json:"status"`
	LatestMonth string   `json:"latest_month,omitempty"`
	Basins      int      `json:"basins"`
	Errors      []string `json:"errors,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	basins, err := s.store.GetActiveBasins()
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
		return
	}

	health := HealthStatus{Status: "ok", Basins: len(basins)}

	date, covered, err := s.store.GetLatestCoveredDate()
	if err != nil {
		health.Status = "error"
		health.Errors = append(health.Errors, err.Error())
	} else if !covered {
		health.Status = "degraded"
	} else {
		health.LatestMonth = date.Format("2006-01-02")
	}

	if runs, err := s.store.GetRecentIngestErrors(5); err == nil {
		for _, run := range runs {
			if run.ErrorMessage.Valid {
				health.Errors = append(health.Errors, run.Source+": "+run.ErrorMessage.String)
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if health.Status != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(health); err != nil {
		log.Printf("health: write response: %v", err)
	}
}

// handleBriefCard serves the shareable monthly summary card. Cards are
// rendered on demand and cached per month.
func (s *Server) handleBriefCard(w http.ResponseWriter, r *http.Request) {
	date, covered, err := s.resolveDate(r.URL.Query().Get("date"))
	if err != nil {
		status := http.StatusInternalServerError
		if r.URL.Query().Get("date") != "" {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}
	if !covered {
		writeError(w, http.StatusNotFound, "no index data yet")
		return
	}

	key := date.Format("2006-01")
	if data, ok := s.briefCache.Get(key, "png"); ok {
		serveCard(w, data)
		return
	}

	s.genMu.Lock()
	defer s.genMu.Unlock()
	if data, ok := s.briefCache.Get(key, "png"); ok {
		serveCard(w, data)
		return
	}

	summary, err := briefgen.BuildSummary(s.store, date, defaultTopLimit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	data, err := briefgen.RenderCard(*summary)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := s.briefCache.Set(key, "png", data); err != nil {
		log.Printf("brief: cache card: %v", err)
	}
	serveCard(w, data)
}

func serveCard(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}
