// Package auth resolves who a request is acting as.
//
// It owns the Identity type bound to a request context, the bcrypt-backed
// credential verifier used at login, and the resolver that turns a token
// subject into an Identity by looking the user up in the store. Nothing here
// caches identities: every request resolves a fresh one so that role changes
// and deletions take effect on the next request.
package auth
