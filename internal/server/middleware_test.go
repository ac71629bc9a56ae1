package server_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/splithub/splithub/internal/assigner"
	"github.com/splithub/splithub/internal/server"
)

func editsEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(server.EditsFromContext(r.Context()))
	})
}

// pageRequest is a browser navigation to target.
func pageRequest(target string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	return req
}

func TestMiddleware_Redirects(t *testing.T) {
	srv, _ := setupTestServer(t, []assigner.TestDefinition{{
		ID:       "landing",
		Status:   assigner.StatusActive,
		Type:     assigner.TypeRedirect,
		Path:     "/",
		Variants: singleVariant("new", "/new-landing"),
	}})
	h := srv.Middleware(editsEcho())

	req := pageRequest("http://shop.example.com/")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "http://shop.example.com/new-landing" {
		t.Errorf("got location %q", loc)
	}

	// The destination itself is served normally
	req = pageRequest("http://shop.example.com/new-landing")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200 on destination, got %d", w.Code)
	}
}

func TestMiddleware_ForwardedProto(t *testing.T) {
	srv, _ := setupTestServer(t, []assigner.TestDefinition{{
		ID:       "landing",
		Status:   assigner.StatusActive,
		Type:     assigner.TypeRedirect,
		Variants: singleVariant("same", "/"),
	}})
	h := srv.Middleware(editsEcho())

	req := pageRequest("http://shop.example.com/")
	req.Header.Set("X-Forwarded-Proto", "https")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected no redirect loop, got %d to %s", w.Code, w.Header().Get("Location"))
	}
}

func TestMiddleware_PassesEdits(t *testing.T) {
	srv, _ := setupTestServer(t, []assigner.TestDefinition{{
		ID:       "headline",
		Status:   assigner.StatusActive,
		Type:     assigner.TypeEdits,
		Variants: singleVariant("bold", "Ship Faster"),
	}})
	h := srv.Middleware(editsEcho())

	req := pageRequest("http://shop.example.com/")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var edits []assigner.EditsTriggered
	if err := json.NewDecoder(w.Body).Decode(&edits); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if len(edits) != 1 || edits[0].TestID != "headline" || edits[0].Variant.Name != "bold" {
		t.Errorf("unexpected edits: %+v", edits)
	}
}

func TestMiddleware_SkipsNonGET(t *testing.T) {
	srv, _ := setupTestServer(t, []assigner.TestDefinition{{
		ID:       "landing",
		Status:   assigner.StatusActive,
		Type:     assigner.TypeRedirect,
		Variants: singleVariant("new", "/new-landing"),
	}})
	h := srv.Middleware(editsEcho())

	req := httptest.NewRequest(http.MethodPost, "http://shop.example.com/", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if len(w.Result().Cookies()) != 0 {
		t.Error("expected no cookies on POST")
	}
}

func TestProxy(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "upstream:"+r.URL.Path)
	}))
	defer upstream.Close()

	srv, _ := setupTestServer(t, []assigner.TestDefinition{{
		ID:       "landing",
		Status:   assigner.StatusActive,
		Type:     assigner.TypeRedirect,
		Path:     "/",
		Variants: singleVariant("new", "/new-landing"),
	}})
	target, _ := url.Parse(upstream.URL)
	srv.Proxy(target)

	req := pageRequest("http://shop.example.com/")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", w.Code)
	}

	req = pageRequest("http://shop.example.com/new-landing")
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Body.String() != "upstream:/new-landing" {
		t.Errorf("got body %q", w.Body.String())
	}
}

func TestMiddleware_SkipsAssetRequests(t *testing.T) {
	srv, s := setupTestServer(t, []assigner.TestDefinition{{
		ID:       "landing",
		Status:   assigner.StatusActive,
		Type:     assigner.TypeRedirect,
		Variants: singleVariant("new", "/new-landing"),
	}})
	h := srv.Middleware(editsEcho())

	for _, accept := range []string{"text/css,*/*;q=0.1", "image/avif,image/webp,*/*", ""} {
		req := httptest.NewRequest(http.MethodGet, "http://shop.example.com/style.css", nil)
		if accept != "" {
			req.Header.Set("Accept", accept)
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Accept %q: expected 200, got %d to %s", accept, w.Code, w.Header().Get("Location"))
		}
		if len(w.Result().Cookies()) != 0 {
			t.Errorf("Accept %q: expected no cookies", accept)
		}
	}

	events, _ := s.GetEvents(context.Background(), "")
	if len(events) != 0 {
		t.Errorf("expected no events for assets, got %d", len(events))
	}
}
