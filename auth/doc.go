// Package auth hashes and verifies user passwords with Argon2id. It holds
// no state of its own; the resulting hash and salt are persisted by
// store.Gateway and compared against on the AUTH path of the Client I/O
// Server.
package auth
