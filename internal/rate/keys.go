package rate

import "strings"

const defaultPrefix = "rl"

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (l *Limiter) loginEmailKey(email string) string {
	return l.prefix + "l:" + normalizeEmail(email)
}

func (l *Limiter) loginIPKey(ip string) string {
	return l.prefix + "li:" + ip
}

func (l *Limiter) refreshKey(tokenID string) string {
	return l.prefix + "r:" + tokenID
}
