package middleware

import (
	"context"
	"net"
	"net/http"

	goSession "github.com/MrEthical07/goSession"
)

type identityContextKey struct{}

// IdentityFromContext returns the identity placed by [Gate] or
// [RequireIdentity].
func IdentityFromContext(ctx context.Context) (*goSession.UserIdentity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(*goSession.UserIdentity)
	return id, ok && id != nil
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *goSession.UserIdentity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// Gate runs engine.Gate for every request. A redirect decision is answered
// with the configured redirect status and the handler chain stops there. A
// nil engine redirects everything to /login.
func Gate(engine *goSession.Engine) func(http.Handler) http.Handler {
	status := engine.Config().Gate.RedirectStatus
	if status == 0 {
		status = http.StatusTemporaryRedirect
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := engine.Gate(goSession.NewRequestContext(r))
			if decision.Action == goSession.GateRedirect {
				http.Redirect(w, r, decision.Location, status)
				return
			}

			if decision.Identity != nil {
				r = r.WithContext(WithIdentity(r.Context(), decision.Identity))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP stores the request's remote address in the context with
// goSession.WithClientIP. Forwarding headers are not trusted.
func ClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			ip = host
		}
		next.ServeHTTP(w, r.WithContext(goSession.WithClientIP(r.Context(), ip)))
	})
}
