package api

import (
	"log"
	"net/http"
	"time"

	"github.com/Mamadiarrabousso/Aquiferpulse/internal/asi"
)

// IndexData is everything the dashboard page needs in one pass.
type IndexData struct {
	Selected    string
	Months      []string
	Summary     *SummaryData
	Top         []asi.RankedBasin
	HasData     bool
	GeneratedAt time.Time
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	date, covered, err := s.resolveDate(r.URL.Query().Get("date"))
	if err != nil {
		if r.URL.Query().Get("date") != "" {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := IndexData{GeneratedAt: time.Now().In(s.loc)}
	if covered {
		data.HasData = true
		data.Selected = date.Format("2006-01-02")

		if data.Summary, err = s.summaryForDate(date); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		ranked, err := s.rankedForDate(date)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		data.Top = asi.TopN(ranked, defaultTopLimit, nil)
	}

	if months, err := s.monthOptions(); err != nil {
		log.Printf("api: month options: %v", err)
	} else {
		data.Months = months
	}

	s.tmpl.ExecuteTemplate(w, "index.html", data)
}

func (s *Server) handleTop10Partial(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date, covered, err := s.resolveDate(q.Get("date"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var rows []asi.RankedBasin
	if covered {
		ranked, err := s.rankedForDate(date)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		rows = asi.TopN(ranked, defaultTopLimit, asi.ParseClasses(q.Get("classes")))
	}
	if err := s.tmpl.ExecuteTemplate(w, "top10.html", rows); err != nil {
		log.Printf("template error: %v", err)
	}
}

func (s *Server) handleSummaryPartial(w http.ResponseWriter, r *http.Request) {
	date, covered, err := s.resolveDate(r.URL.Query().Get("date"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	summary := &SummaryData{Counts: map[string]int{}}
	if covered {
		if summary, err = s.summaryForDate(date); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
	if err := s.tmpl.ExecuteTemplate(w, "summary.html", summary); err != nil {
		log.Printf("template error: %v", err)
	}
}

// monthOptions enumerates every month between the stored date range, newest
// first, for the dashboard's month picker.
func (s *Server) monthOptions() ([]string, error) {
	min, max, ok, err := s.store.GetDateRange()
	if err != nil || !ok {
		return nil, err
	}
	var months []string
	for d := asi.MonthFloor(max); !d.Before(asi.MonthFloor(min)); d = d.AddDate(0, -1, 0) {
		months = append(months, d.Format("2006-01-02"))
	}
	return months, nil
}
