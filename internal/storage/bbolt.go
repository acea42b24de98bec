package storage

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/live-labs/tradebutler/internal/crypto"
)

// Bucket names
var (
	ConfigBucket     = []byte("config")     // Schema version, timestamps, vault ID
	CredentialBucket = []byte("credential") // Lock-screen secret records
	TradesBucket     = []byte("trades")     // Trade records keyed by sequence ID
	JournalBucket    = []byte("journal")    // Journal entries, revisions, strategies
	ChecklistBucket  = []byte("checklist")  // Per-entry checklist responses
)

// Config keys
var (
	ConfigVersion  = []byte("version")
	ConfigCreated  = []byte("created")
	ConfigModified = []byte("modified")
	ConfigVaultID  = []byte("vault_id")
)

// Credential keys
var (
	credentialHash  = []byte("hash")
	credentialSalt  = []byte("salt")
	credentialKind  = []byte("kind")
	credentialIters = []byte("iterations")
	credentialLock  = []byte("lock")
)

// CredentialRecord is the persisted form of the lock-screen secret.
// Salt == nil marks a record written by the legacy unsalted scheme.
type CredentialRecord struct {
	Digest     []byte
	Salt       []byte
	Kind       string
	Iterations int
}

// Storage provides BBolt-based storage for tradebutler
type Storage struct {
	db *bolt.DB
}

// Open opens or creates a tradebutler database
func Open(path string) (*Storage, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Storage{db: db}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	return s.db.Close()
}

// Initialize creates the bucket structure for a new database
func (s *Storage) Initialize() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{ConfigBucket, CredentialBucket, TradesBucket, JournalBucket, ChecklistBucket} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}

		config := tx.Bucket(ConfigBucket)
		if config.Get(ConfigVersion) != nil {
			return nil
		}
		if err := config.Put(ConfigVersion, []byte("1")); err != nil {
			return err
		}

		now := time.Now()
		created, _ := now.MarshalBinary()
		if err := config.Put(ConfigCreated, created); err != nil {
			return err
		}
		return config.Put(ConfigModified, created)
	})
}

// IsInitialized checks if the database has been initialized
func (s *Storage) IsInitialized() (bool, error) {
	var initialized bool
	err := s.db.View(func(tx *bolt.Tx) error {
		config := tx.Bucket(ConfigBucket)
		if config != nil && config.Get(ConfigVersion) != nil {
			initialized = true
		}
		return nil
	})
	return initialized, err
}

// GetCredential retrieves the stored credential record, or nil if none exists.
func (s *Storage) GetCredential() (*CredentialRecord, error) {
	var rec *CredentialRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(CredentialBucket)
		if bucket == nil {
			return nil
		}
		digest := bucket.Get(credentialHash)
		if digest == nil {
			return nil
		}
		rec = &CredentialRecord{
			// Copies: slices are only valid during the transaction
			Digest: append([]byte(nil), digest...),
			Kind:   string(bucket.Get(credentialKind)),
		}
		if salt := bucket.Get(credentialSalt); salt != nil {
			rec.Salt = append([]byte(nil), salt...)
		}
		if iters := bucket.Get(credentialIters); len(iters) == 4 {
			rec.Iterations = int(binary.BigEndian.Uint32(iters))
		}
		return nil
	})
	return rec, err
}

// GetCredentialKind returns the stored kind independent of digest presence.
func (s *Storage) GetCredentialKind() (string, error) {
	var kind string
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(CredentialBucket)
		if bucket == nil {
			return nil
		}
		kind = string(bucket.Get(credentialKind))
		return nil
	})
	return kind, err
}

// PutCredential writes a credential record as one logical unit: kind and
// salt land before the digest, all in a single transaction.
func (s *Storage) PutCredential(rec *CredentialRecord) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(CredentialBucket)
		if bucket == nil {
			return fmt.Errorf("credential bucket not found")
		}
		if err := bucket.Put(credentialKind, []byte(rec.Kind)); err != nil {
			return err
		}
		if rec.Salt != nil {
			if err := bucket.Put(credentialSalt, rec.Salt); err != nil {
				return err
			}
		} else {
			if err := bucket.Delete(credentialSalt); err != nil {
				return err
			}
		}
		if rec.Iterations > 0 {
			iters := make([]byte, 4)
			binary.BigEndian.PutUint32(iters, uint32(rec.Iterations))
			if err := bucket.Put(credentialIters, iters); err != nil {
				return err
			}
		} else {
			if err := bucket.Delete(credentialIters); err != nil {
				return err
			}
		}
		return bucket.Put(credentialHash, rec.Digest)
	})
}

// DeleteCredential removes the digest, salt, kind, iterations, and lock flag
// together. It is a no-op when nothing is stored.
func (s *Storage) DeleteCredential() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(CredentialBucket)
		if bucket == nil {
			return nil
		}
		for _, key := range [][]byte{credentialHash, credentialSalt, credentialKind, credentialIters, credentialLock} {
			if err := bucket.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetLockFlag reports whether the lock flag is set
func (s *Storage) GetLockFlag() (bool, error) {
	var locked bool
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(CredentialBucket)
		if bucket == nil {
			return nil
		}
		locked = string(bucket.Get(credentialLock)) == "true"
		return nil
	})
	return locked, err
}

// SetLockFlag sets or clears the lock flag
func (s *Storage) SetLockFlag(locked bool) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(CredentialBucket)
		if bucket == nil {
			return fmt.Errorf("credential bucket not found")
		}
		if locked {
			return bucket.Put(credentialLock, []byte("true"))
		}
		return bucket.Delete(credentialLock)
	})
}

// PutRecord stores a raw record in the given bucket
func (s *Storage) PutRecord(bucket []byte, key, value []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return fmt.Errorf("bucket %s not found", bucket)
		}
		return b.Put(key, value)
	})
}

// GetRecord retrieves a raw record from the given bucket, nil if absent
func (s *Storage) GetRecord(bucket []byte, key []byte) ([]byte, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return fmt.Errorf("bucket %s not found", bucket)
		}
		if v := b.Get(key); v != nil {
			// Make a copy since the slice is only valid during the transaction
			data = append([]byte(nil), v...)
		}
		return nil
	})
	return data, err
}

// DeleteRecord removes a record from the given bucket
func (s *Storage) DeleteRecord(bucket []byte, key []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return fmt.Errorf("bucket %s not found", bucket)
		}
		return b.Delete(key)
	})
}

// ForEachRecord iterates all records in the given bucket
func (s *Storage) ForEachRecord(bucket []byte, fn func(k, v []byte) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return fmt.Errorf("bucket %s not found", bucket)
		}
		return b.ForEach(fn)
	})
}

// ForEachPrefix iterates records in the given bucket whose key starts with prefix
func (s *Storage) ForEachPrefix(bucket, prefix []byte, fn func(k, v []byte) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return fmt.Errorf("bucket %s not found", bucket)
		}
		c := b.Cursor()
		for k, v := c.Seek(prefix); k != nil && len(k) >= len(prefix) && string(k[:len(prefix)]) == string(prefix); k, v = c.Next() {
			if err := fn(k, v); err != nil {
				return err
			}
		}
		return nil
	})
}

// NextID returns the next sequence number for the given bucket
func (s *Storage) NextID(bucket []byte) (uint64, error) {
	var id uint64
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return fmt.Errorf("bucket %s not found", bucket)
		}
		var err error
		id, err = b.NextSequence()
		return err
	})
	return id, err
}

// Wipe deletes all trade, journal, and checklist data. Credential records
// are untouched; the forgot-credential flow deletes them separately after
// the wipe completes.
func (s *Storage) Wipe() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{TradesBucket, JournalBucket, ChecklistBucket} {
			if err := tx.DeleteBucket(bucket); err != nil && err != bolt.ErrBucketNotFound {
				return err
			}
			if _, err := tx.CreateBucket(bucket); err != nil {
				return err
			}
		}
		config := tx.Bucket(ConfigBucket)
		if config != nil {
			now, _ := time.Now().MarshalBinary()
			return config.Put(ConfigModified, now)
		}
		return nil
	})
}

// GetVaultID retrieves the vault ID from config bucket
func (s *Storage) GetVaultID() (string, error) {
	var vaultID string
	err := s.db.View(func(tx *bolt.Tx) error {
		config := tx.Bucket(ConfigBucket)
		if config == nil {
			return fmt.Errorf("config bucket not found")
		}
		data := config.Get(ConfigVaultID)
		if data == nil {
			return fmt.Errorf("vault_id not found")
		}
		vaultID = string(data)
		return nil
	})
	return vaultID, err
}

// GetOrCreateVaultID retrieves existing vault ID or generates a new one
func (s *Storage) GetOrCreateVaultID() (string, error) {
	vaultID, err := s.GetVaultID()
	if err == nil {
		return vaultID, nil
	}

	b, err := crypto.GenerateRandom(16)
	if err != nil {
		return "", fmt.Errorf("failed to generate vault ID: %w", err)
	}
	vaultID = hex.EncodeToString(b)

	err = s.db.Update(func(tx *bolt.Tx) error {
		config := tx.Bucket(ConfigBucket)
		return config.Put(ConfigVaultID, []byte(vaultID))
	})
	if err != nil {
		return "", err
	}

	return vaultID, nil
}

// Compact creates a compacted copy of the database, removing unused space.
// This is useful after a wipe to reclaim disk space.
func (s *Storage) Compact() error {
	srcPath := s.db.Path()
	tmpPath := srcPath + ".compact"

	dst, err := bolt.Open(tmpPath, 0600, nil)
	if err != nil {
		return fmt.Errorf("failed to create compact database: %w", err)
	}

	err = s.db.View(func(srcTx *bolt.Tx) error {
		return dst.Update(func(dstTx *bolt.Tx) error {
			return srcTx.ForEach(func(name []byte, srcBucket *bolt.Bucket) error {
				dstBucket, err := dstTx.CreateBucketIfNotExists(name)
				if err != nil {
					return err
				}
				if err := dstBucket.SetSequence(srcBucket.Sequence()); err != nil {
					return err
				}
				return srcBucket.ForEach(func(k, v []byte) error {
					return dstBucket.Put(k, v)
				})
			})
		})
	})

	if err != nil {
		dst.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to copy data: %w", err)
	}

	if err := dst.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close compact database: %w", err)
	}

	if err := s.db.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close source database: %w", err)
	}

	// Atomic replace
	backupPath := srcPath + ".backup"
	if err := os.Rename(srcPath, backupPath); err != nil {
		return fmt.Errorf("failed to backup original: %w", err)
	}
	if err := os.Rename(tmpPath, srcPath); err != nil {
		os.Rename(backupPath, srcPath) // rollback
		return fmt.Errorf("failed to replace database: %w", err)
	}
	os.Remove(backupPath)

	s.db, err = bolt.Open(srcPath, 0600, nil)
	if err != nil {
		return fmt.Errorf("failed to reopen database: %w", err)
	}

	return nil
}
