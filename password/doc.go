// Package password hashes and verifies passwords and enforces the signup
// strength policy.
//
// Two [Hasher] implementations exist: [Bcrypt] (default, cost 10) and
// [Argon2] (argon2id, PHC string output). Verification never compares
// plaintext.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords; callers supply plaintext and receive hashes.
//   - Import any other goSession package.
//   - Log plaintext passwords.
package password
