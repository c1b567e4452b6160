package flows

import (
	"strings"

	"github.com/MrEthical07/goSession/jwt"
)

// PathClass is the gate's classification of a request path.
type PathClass int

const (
	PathUnclassified PathClass = iota
	PathAuthPage
	PathProtected
	PathPublic
)

func (c PathClass) String() string {
	switch c {
	case PathAuthPage:
		return "auth-page"
	case PathProtected:
		return "protected"
	case PathPublic:
		return "public"
	default:
		return "unclassified"
	}
}

// GateAction is either continue or redirect.
type GateAction int

const (
	GateContinue GateAction = iota
	GateRedirect
)

// Gate decision reasons, for advisory logging and metrics.
const (
	GateReasonMisconfigured = "misconfigured"
	GateReasonNoToken       = "no_token"
	GateReasonInvalidToken  = "invalid_token"
	GateReasonAuthenticated = "authenticated"
	GateReasonOpen          = "open"
)

// GateResult is the decision for one request.
type GateResult struct {
	Action   GateAction
	Location string
	Class    PathClass
	Reason   string
	Identity *Identity
	TokenErr error
}

// GateDeps captures the gate's static configuration and the verifying
// parser. ParseAccess nil means the access secret is unconfigured.
type GateDeps struct {
	AuthPrefixes      []string
	ProtectedPrefixes []string
	PublicPrefixes    []string
	LoginPath         string
	LandingPath       string
	ParseAccess       func(string) (*jwt.AccessClaims, error)
}

// MatchPrefix reports whether path equals prefix or continues it with "/".
func MatchPrefix(path, prefix string) bool {
	if prefix == "" {
		return false
	}
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		return path == "/"
	}
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/'
}

// Classify returns the first matching class, checking auth pages, then
// protected, then public.
func Classify(path string, deps GateDeps) PathClass {
	for _, p := range deps.AuthPrefixes {
		if MatchPrefix(path, p) {
			return PathAuthPage
		}
	}
	for _, p := range deps.ProtectedPrefixes {
		if MatchPrefix(path, p) {
			return PathProtected
		}
	}
	for _, p := range deps.PublicPrefixes {
		if MatchPrefix(path, p) {
			return PathPublic
		}
	}
	return PathUnclassified
}

// RunGate evaluates the per-request decision table. It performs no I/O.
func RunGate(path, accessToken string, deps GateDeps) GateResult {
	if deps.ParseAccess == nil {
		return GateResult{
			Action:   GateRedirect,
			Location: deps.LoginPath,
			Class:    Classify(path, deps),
			Reason:   GateReasonMisconfigured,
		}
	}

	class := Classify(path, deps)
	if class == PathPublic || class == PathUnclassified {
		return GateResult{Action: GateContinue, Class: class, Reason: GateReasonOpen}
	}

	if accessToken == "" {
		if class == PathProtected {
			return GateResult{Action: GateRedirect, Location: deps.LoginPath, Class: class, Reason: GateReasonNoToken}
		}
		return GateResult{Action: GateContinue, Class: class, Reason: GateReasonNoToken}
	}

	claims, err := deps.ParseAccess(accessToken)
	if err != nil {
		if class == PathProtected {
			return GateResult{Action: GateRedirect, Location: deps.LoginPath, Class: class, Reason: GateReasonInvalidToken, TokenErr: err}
		}
		return GateResult{Action: GateContinue, Class: class, Reason: GateReasonInvalidToken, TokenErr: err}
	}

	identity := &Identity{ID: claims.ID, Email: claims.Email}
	if class == PathAuthPage {
		return GateResult{Action: GateRedirect, Location: deps.LandingPath, Class: class, Reason: GateReasonAuthenticated, Identity: identity}
	}
	return GateResult{Action: GateContinue, Class: class, Reason: GateReasonAuthenticated, Identity: identity}
}
