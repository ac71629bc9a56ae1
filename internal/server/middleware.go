package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/splithub/splithub/internal/assigner"
)

type editsKey struct{}

// Middleware applies the configured tests to GET or HEAD requests for HTML
// pages. Assets and API calls (no text/html in Accept) pass through
// untouched. A redirect test that fires answers with 302; otherwise the
// request is passed on with the edit results attached to its context.
func (s *Server) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if (r.Method != http.MethodGet && r.Method != http.MethodHead) || !acceptsHTML(r) {
			next.ServeHTTP(w, r)
			return
		}

		pg := pageFromRequest(r)
		jar := newCookieJar(w, r)
		edits := s.assign(r.Context(), jar, visitorID(jar), pg)

		if pg.redirect != "" {
			http.Redirect(w, r, pg.redirect, http.StatusFound)
			return
		}

		ctx := context.WithValue(r.Context(), editsKey{}, edits)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func acceptsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

// EditsFromContext returns the edits assigned by Middleware for this request.
func EditsFromContext(ctx context.Context) []assigner.EditsTriggered {
	edits, _ := ctx.Value(editsKey{}).([]assigner.EditsTriggered)
	return edits
}
