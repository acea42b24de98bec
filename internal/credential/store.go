package credential

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/live-labs/tradebutler/internal/crypto"
	"github.com/live-labs/tradebutler/internal/storage"
)

// Kind identifies the shape of the stored secret.
type Kind string

const (
	KindNone     Kind = ""
	KindPIN      Kind = "pin"
	KindPassword Kind = "password"
)

const (
	PINLength         = 6 // PINs are exactly six decimal digits
	PasswordMinLength = 4
)

var (
	ErrInvalidPIN       = errors.New("pin must be exactly 6 digits")
	ErrPasswordTooShort = errors.New("password must be at least 4 characters")
	ErrUnknownKind      = errors.New("unknown credential kind")
)

// Store owns the lifecycle of the lock-screen secret.
type Store struct {
	mu  sync.Mutex
	db  *storage.Storage
	log *zap.Logger
}

// New creates a credential store backed by the given database.
func New(db *storage.Storage, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{db: db, log: log}
}

// HasCredential reports whether a credential is stored.
func (s *Store) HasCredential() (bool, error) {
	rec, err := s.db.GetCredential()
	if err != nil {
		return false, fmt.Errorf("failed to read credential: %w", err)
	}
	return rec != nil, nil
}

// CredentialKind reflects the stored kind record, independent of digest
// presence. Callers must treat KindNone as "not set".
func (s *Store) CredentialKind() (Kind, error) {
	kind, err := s.db.GetCredentialKind()
	if err != nil {
		return KindNone, fmt.Errorf("failed to read credential kind: %w", err)
	}
	switch Kind(kind) {
	case KindPIN, KindPassword:
		return Kind(kind), nil
	default:
		return KindNone, nil
	}
}

// Set validates the secret against the kind's shape constraint and persists
// a freshly salted digest. A fresh salt is generated on every call, also
// when overwriting an existing credential, so salts are never reused.
func (s *Store) Set(secret []byte, kind Kind) error {
	if err := Validate(secret, kind); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.writeDerived(secret, kind)
}

// Validate checks a secret against the shape constraint of kind without
// touching storage. PINs are exactly six decimal digits; passwords are at
// least four characters.
func Validate(secret []byte, kind Kind) error {
	switch kind {
	case KindPIN:
		if len(secret) != PINLength {
			return ErrInvalidPIN
		}
		for _, c := range secret {
			if c < '0' || c > '9' {
				return ErrInvalidPIN
			}
		}
		return nil
	case KindPassword:
		if len(secret) < PasswordMinLength {
			return ErrPasswordTooShort
		}
		return nil
	default:
		return ErrUnknownKind
	}
}

// Verify reports whether input matches the stored credential. A record
// written by the legacy unsalted scheme is transparently migrated to the
// salted scheme on a successful match before true is returned.
func (s *Store) Verify(input []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.db.GetCredential()
	if err != nil {
		return false, fmt.Errorf("failed to read credential: %w", err)
	}
	if rec == nil {
		return false, nil
	}

	if rec.Salt == nil {
		// Legacy record: weak rolling hash, no salt. Upgrade on match.
		if !crypto.ConstantTimeCompare(crypto.LegacyHash(input), rec.Digest) {
			return false, nil
		}
		if err := s.writeDerived(input, Kind(rec.Kind)); err != nil {
			// The secret was correct; the unlock proceeds and the
			// upgrade is retried on the next successful verify.
			s.log.Warn("credential migration failed", zap.Error(err))
		} else {
			s.log.Info("migrated legacy credential to salted scheme")
		}
		return true, nil
	}

	iterations := rec.Iterations
	if iterations <= 0 {
		iterations = crypto.DefaultIters
	}
	kdf := &crypto.KDF{Salt: rec.Salt, Iterations: iterations}
	digest := kdf.Derive(input)
	return crypto.ConstantTimeCompare(digest, rec.Digest), nil
}

// Delete removes the digest, salt, kind, and lock state together.
// It is idempotent: deleting when nothing is stored is a no-op.
func (s *Store) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.DeleteCredential(); err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return nil
}

// IsLocked reports whether the application is locked. The lock state is
// meaningless without a credential, so it reads false once the credential
// has been deleted.
func (s *Store) IsLocked() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	locked, err := s.db.GetLockFlag()
	if err != nil {
		return false, fmt.Errorf("failed to read lock state: %w", err)
	}
	if !locked {
		return false, nil
	}
	has, err := s.HasCredential()
	if err != nil {
		return false, err
	}
	return has, nil
}

// SetLocked sets or clears the lock flag. Locking without a stored
// credential is a no-op: an app with no credential cannot be locked.
// Holding the mutex keeps the credential check and the flag write one
// unit, so a concurrent Delete cannot leave a stale flag behind.
func (s *Store) SetLocked(locked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if locked {
		has, err := s.HasCredential()
		if err != nil {
			return err
		}
		if !has {
			return nil
		}
	}
	if err := s.db.SetLockFlag(locked); err != nil {
		return fmt.Errorf("failed to write lock state: %w", err)
	}
	return nil
}

// writeDerived persists a freshly salted digest for secret. Digest, salt,
// and kind land in one transaction; the caller holds s.mu.
func (s *Store) writeDerived(secret []byte, kind Kind) error {
	kdf, err := crypto.NewKDF()
	if err != nil {
		return err
	}
	digest := kdf.Derive(secret)
	defer crypto.ClearBytes(digest)

	rec := &storage.CredentialRecord{
		Digest:     digest,
		Salt:       kdf.Salt,
		Kind:       string(kind),
		Iterations: kdf.Iterations,
	}
	if err := s.db.PutCredential(rec); err != nil {
		return fmt.Errorf("failed to persist credential: %w", err)
	}
	return nil
}
