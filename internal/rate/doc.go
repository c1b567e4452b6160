// Package rate provides the Redis-backed fixed-window counters behind the
// login and refresh throttles.
//
// # Window semantics
//
// Fixed-window counters: INCR + EXPIRE on the first hit of a window. Keys:
//   - <prefix>l:<email>   login per email
//   - <prefix>li:<ip>     login per client IP
//   - <prefix>r:<tokenId> refresh per refresh token
//
// Emails are lower-cased and trimmed before keying so case variants share a
// budget.
package rate
