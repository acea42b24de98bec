// Package credential implements the lock-screen credential store.
//
// It holds at most one secret (a 6-digit PIN or a password of at least four
// characters) and answers whether a given input matches it. The secret is
// never persisted in recoverable form: only a PBKDF2-HMAC-SHA256 digest and
// its salt are stored.
//
// Records written by old installations carry no salt; they were hashed with
// a weak rolling hash. Such a record is accepted once, on a successful
// Verify, and immediately rewritten under the salted scheme with a fresh
// salt. A failed rewrite does not fail the unlock.
//
// State machine per credential slot:
//
//	Unset -> Set(legacy|current)  via Set
//	Set(legacy) -> Set(current)   via a successful Verify (migration)
//	Set(*) -> Set(current)        via Set (explicit change)
//	Set(*) -> Unset               via Delete
//
// Set, Verify, and Delete are serialized with an in-process mutex so a
// migration write can never race a user-initiated change and resurrect a
// stale digest.
package credential
