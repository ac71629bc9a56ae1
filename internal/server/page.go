package server

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	visitorCookieName = "splithub_vid"
	visitorCookieDays = 365
)

var errInvalidPageURL = errors.New("url must be an absolute http(s) url")

// page is the page view an assigner runs against. Navigation is captured
// rather than performed; the caller turns it into a redirect.
type page struct {
	u        *url.URL
	redirect string
}

func parsePage(raw string) (*page, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, errInvalidPageURL
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, errInvalidPageURL
	}
	return &page{u: u}, nil
}

// requestScheme is the scheme the client used, honoring a TLS-terminating
// proxy's X-Forwarded-Proto.
func requestScheme(r *http.Request) string {
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		return proto
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

func pageFromRequest(r *http.Request) *page {
	u := *r.URL
	u.Scheme = requestScheme(r)
	u.Host = r.Host
	return &page{u: &u}
}

func (p *page) Path() string {
	if p.u.Path == "" {
		return "/"
	}
	return p.u.Path
}

func (p *page) Origin() string {
	return p.u.Scheme + "://" + p.u.Host
}

func (p *page) URL() string {
	return p.u.String()
}

func (p *page) Navigate(target string) {
	p.redirect = target
}

// CookieWrite is a cookie the page script must store on the site itself.
type CookieWrite struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Days  int    `json:"days"`
}

// cookieJar reads request cookies and writes Set-Cookie headers. Values set
// during the request are visible to later reads in the same request.
//
// A forwarding jar serves cross-site script calls: it reads the site's
// cookies as sent by the script and records writes for the script to apply,
// since cookies on this host are not sent on cross-site requests.
type cookieJar struct {
	r        *http.Request
	w        http.ResponseWriter
	incoming map[string]string
	set      map[string]string
	writes   []CookieWrite
}

func newCookieJar(w http.ResponseWriter, r *http.Request) *cookieJar {
	return &cookieJar{r: r, w: w, set: make(map[string]string)}
}

// newForwardingJar builds a jar from a document.cookie style header
// ("a=1; b=2") forwarded by the page script.
func newForwardingJar(r *http.Request, header string) *cookieJar {
	return &cookieJar{r: r, incoming: parseCookieHeader(header), set: make(map[string]string)}
}

func parseCookieHeader(header string) map[string]string {
	values := make(map[string]string)
	for _, part := range strings.Split(header, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || name == "" {
			continue
		}
		if unescaped, err := url.QueryUnescape(value); err == nil {
			value = unescaped
		}
		values[name] = value
	}
	return values
}

func (j *cookieJar) Get(name string) (string, bool) {
	if v, ok := j.set[name]; ok {
		return v, true
	}
	if v, ok := j.incoming[name]; ok {
		return v, true
	}
	c, err := j.r.Cookie(name)
	if err != nil {
		return "", false
	}
	return c.Value, true
}

func (j *cookieJar) Set(name, value string, days int) {
	j.set[name] = value
	if j.w == nil {
		j.writes = append(j.writes, CookieWrite{Name: name, Value: value, Days: days})
		return
	}
	http.SetCookie(j.w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  time.Now().Add(time.Duration(days) * 24 * time.Hour),
		MaxAge:   days * 24 * 60 * 60,
		SameSite: http.SameSiteLaxMode,
	})
}

// scriptVisitorID returns the id the page script keeps in the site's
// localStorage, then the visitor cookie for same-site setups, then a new id.
// The script stores whatever id the response carries.
func scriptVisitorID(r *http.Request) string {
	if v := r.URL.Query().Get("vid"); v != "" {
		if _, err := uuid.Parse(v); err == nil {
			return v
		}
	}
	if c, err := r.Cookie(visitorCookieName); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value
		}
	}
	return uuid.NewString()
}

// visitorID returns the visitor cookie, issuing a new id when it is missing
// or malformed.
func visitorID(j *cookieJar) string {
	if v, ok := j.Get(visitorCookieName); ok {
		if _, err := uuid.Parse(v); err == nil {
			return v
		}
	}

	id := uuid.NewString()
	j.Set(visitorCookieName, id, visitorCookieDays)
	return id
}
