// Package crypto provides the hashing primitives for the credential store.
//
// Key derivation uses PBKDF2-HMAC-SHA256 with:
//   - 16-byte random salt (stored alongside the digest)
//   - 210,000 iterations (OWASP minimum recommendation)
//   - 32-byte output digest
//
// Digest comparison always goes through ConstantTimeCompare so that a
// mismatch does not leak where the digests diverge.
//
// LegacyHash reproduces the non-cryptographic rolling hash used by old
// installations. It exists only so pre-existing unsalted records can be
// validated once and upgraded; it must never be used for new credentials.
//
// Memory safety:
//   - Use ClearBytes() to zero sensitive data after use
package crypto
