// Package jwt signs and verifies the two HS256 token types used by goSession:
// short-lived access tokens carrying {id, email} and long-lived refresh tokens
// carrying {id, tokenId}.
//
// Verification is a pure function of (token, secret, now). Every failure is
// reported as exactly one of [ErrExpired], [ErrMalformed] or [ErrBadSignature].
// [DecodeAccessUnverified] exists for inspection only and must never back an
// authorization decision.
package jwt
