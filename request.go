package goSession

import (
	"net/http"

	"github.com/MrEthical07/goSession/internal/flows"
)

// RequestContext is the explicit per-request input to the gate and the
// handlers: incoming cookies plus an output list of cookies to set.
type RequestContext struct {
	Method     string
	Path       string
	ClientIP   string
	Cookies    map[string]string
	SetCookies []*http.Cookie
}

// NewRequestContext snapshots the method, path and cookies of r. When a
// cookie name repeats, the first value wins, matching [http.Request.Cookie].
func NewRequestContext(r *http.Request) *RequestContext {
	rc := &RequestContext{
		Method:  r.Method,
		Path:    r.URL.Path,
		Cookies: make(map[string]string),
	}
	for _, c := range r.Cookies() {
		if _, seen := rc.Cookies[c.Name]; !seen {
			rc.Cookies[c.Name] = c.Value
		}
	}
	return rc
}

// Cookie returns the named incoming cookie value, or "" when absent.
func (rc *RequestContext) Cookie(name string) string {
	if rc == nil || rc.Cookies == nil {
		return ""
	}
	return rc.Cookies[name]
}

// SetCookie appends c to the output cookie list.
func (rc *RequestContext) SetCookie(c *http.Cookie) {
	if rc == nil || c == nil {
		return
	}
	rc.SetCookies = append(rc.SetCookies, c)
}

// WriteCookies emits every output cookie on w.
func (rc *RequestContext) WriteCookies(w http.ResponseWriter) {
	if rc == nil {
		return
	}
	for _, c := range rc.SetCookies {
		http.SetCookie(w, c)
	}
}

// GateAction is the gate's verdict for one request.
type GateAction int

const (
	// GateContinue lets the request through.
	GateContinue GateAction = iota
	// GateRedirect sends the client to GateDecision.Location.
	GateRedirect
)

// PathClass is the gate's classification of a request path.
type PathClass = flows.PathClass

const (
	PathUnclassified = flows.PathUnclassified
	PathAuthPage     = flows.PathAuthPage
	PathProtected    = flows.PathProtected
	PathPublic       = flows.PathPublic
)

// GateDecision is the output of [Engine.Gate]. Identity is set only for a
// protected path with a valid access token (and for the redirect away from
// an auth page).
type GateDecision struct {
	Action   GateAction
	Location string
	Class    PathClass
	Reason   string
	Identity *UserIdentity
}
