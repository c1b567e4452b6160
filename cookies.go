package goSession

import (
	"net/http"
	"time"
)

// AccessCookie builds the access-token cookie.
func (e *Engine) AccessCookie(token string, ttl time.Duration) *http.Cookie {
	return e.cookie(e.config.Cookie.AccessName, token, int(ttl/time.Second))
}

// RefreshCookie builds the refresh-token cookie.
func (e *Engine) RefreshCookie(token string, ttl time.Duration) *http.Cookie {
	return e.cookie(e.config.Cookie.RefreshName, token, int(ttl/time.Second))
}

// ClearCookies returns the two expiring cookies that remove the access and
// refresh cookies. They carry the same attributes as the cookies that were
// set, otherwise browsers keep the originals.
func (e *Engine) ClearCookies() []*http.Cookie {
	access := e.cookie(e.config.Cookie.AccessName, "", -1)
	refresh := e.cookie(e.config.Cookie.RefreshName, "", -1)
	access.Expires = time.Unix(0, 0)
	refresh.Expires = time.Unix(0, 0)
	return []*http.Cookie{access, refresh}
}

func (e *Engine) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     e.config.Cookie.Path,
		Domain:   e.config.Cookie.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   e.config.SecureCookies(),
		SameSite: e.config.Cookie.SameSite,
	}
}
