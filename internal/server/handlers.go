package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/splithub/splithub/internal/analytics"
	"github.com/splithub/splithub/internal/assigner"
	"github.com/splithub/splithub/internal/store"
)

type HealthResponse struct {
	Status        string `json:"status"`
	TestsCount    int    `json:"tests_count"`
	DBSizeBytes   int64  `json:"db_size_bytes"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var dbSize int64
	row := s.store.DB().QueryRowContext(r.Context(), "SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()")
	if err := row.Scan(&dbSize); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	response := HealthResponse{
		Status:        "ok",
		TestsCount:    len(s.tests.Tests()),
		DBSizeBytes:   dbSize,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// AssignResponse tells the calling page what to do. Cookies lists
// cookie-backed assignments the script must store on the site.
type AssignResponse struct {
	VisitorID string                    `json:"visitor_id"`
	Redirect  string                    `json:"redirect,omitempty"`
	Edits     []assigner.EditsTriggered `json:"edits"`
	Cookies   []CookieWrite             `json:"cookies,omitempty"`
}

// assign runs every configured test for one page view.
func (s *Server) assign(ctx context.Context, jar *cookieJar, vid string, pg *page) []assigner.EditsTriggered {
	edits := []assigner.EditsTriggered{}
	bus := assigner.NewBus()
	bus.Subscribe(assigner.EditsTriggeredEvent, func(e assigner.EditsTriggered) {
		edits = append(edits, e)
	})

	logger := s.logger.With("visitor", vid, "path", pg.Path())
	a := assigner.New(s.tests.Tests(), assigner.Env{
		Cookies:   jar,
		Local:     store.NewVisitorKV(s.store, vid),
		Page:      pg,
		Analytics: analytics.NewEventSink(ctx, s.store, vid, logger),
		Bus:       bus,
	}, assigner.WithLogger(logger), assigner.WithObserver(s.metrics))
	a.RunTestsForPage(ctx)

	return edits
}

func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	// Credentialed CORS for same-site setups that rely on the visitor cookie
	if origin := r.Header.Get("Origin"); origin != "" {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Add("Vary", "Origin")
	} else {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	}
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	raw := q.Get("url")
	if raw == "" {
		http.Error(w, "url parameter required", http.StatusBadRequest)
		return
	}

	pg, err := parsePage(raw)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	jar := newForwardingJar(r, q.Get("cookies"))
	vid := scriptVisitorID(r)
	edits := s.assign(r.Context(), jar, vid, pg)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	json.NewEncoder(w).Encode(AssignResponse{
		VisitorID: vid,
		Redirect:  pg.redirect,
		Edits:     edits,
		Cookies:   jar.writes,
	})
}

type EventsResponse struct {
	Events []EventItem         `json:"events"`
	Counts []store.ActionCount `json:"counts"`
}

type EventItem struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"timestamp"`
	Category  string `json:"category"`
	Action    string `json:"action"`
	Label     string `json:"label"`
	VisitorID string `json:"visitor_id"`
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	events, err := s.store.GetEvents(ctx, r.URL.Query().Get("action"))
	if err != nil {
		http.Error(w, "Failed to fetch events", http.StatusInternalServerError)
		return
	}

	counts, err := s.store.CountEvents(ctx)
	if err != nil {
		http.Error(w, "Failed to count events", http.StatusInternalServerError)
		return
	}

	response := EventsResponse{
		Events: make([]EventItem, len(events)),
		Counts: counts,
	}
	for i, e := range events {
		response.Events[i] = EventItem{
			ID:        e.ID,
			Timestamp: e.CreatedAt.Unix(),
			Category:  e.Category,
			Action:    e.Action,
			Label:     e.Label,
			VisitorID: e.VisitorID,
		}
	}

	// Return empty array instead of null
	if response.Counts == nil {
		response.Counts = []store.ActionCount{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
