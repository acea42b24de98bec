package storage

import (
	"bytes"
	"path/filepath"
	"testing"
)

func openTestStorage(t *testing.T) *Storage {
	t.Helper()
	dir := t.TempDir()
	db, err := Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Initialize(); err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}
	return db
}

func TestOpenAndInitialize(t *testing.T) {
	db := openTestStorage(t)

	initialized, err := db.IsInitialized()
	if err != nil {
		t.Fatalf("Failed to check initialization: %v", err)
	}
	if !initialized {
		t.Error("Database should be initialized")
	}
}

func TestCredentialRoundTrip(t *testing.T) {
	db := openTestStorage(t)

	rec, err := db.GetCredential()
	if err != nil {
		t.Fatalf("GetCredential failed: %v", err)
	}
	if rec != nil {
		t.Fatal("Fresh database should have no credential")
	}

	want := &CredentialRecord{
		Digest:     []byte("digest-bytes"),
		Salt:       []byte("0123456789abcdef"),
		Kind:       "pin",
		Iterations: 210000,
	}
	if err := db.PutCredential(want); err != nil {
		t.Fatalf("PutCredential failed: %v", err)
	}

	got, err := db.GetCredential()
	if err != nil {
		t.Fatalf("GetCredential failed: %v", err)
	}
	if got == nil {
		t.Fatal("Credential should exist after put")
	}
	if !bytes.Equal(got.Digest, want.Digest) {
		t.Errorf("Digest mismatch: got %q", got.Digest)
	}
	if !bytes.Equal(got.Salt, want.Salt) {
		t.Errorf("Salt mismatch: got %q", got.Salt)
	}
	if got.Kind != "pin" {
		t.Errorf("Kind mismatch: got %q", got.Kind)
	}
	if got.Iterations != 210000 {
		t.Errorf("Iterations mismatch: got %d", got.Iterations)
	}
}

func TestLegacyCredentialHasNoSalt(t *testing.T) {
	db := openTestStorage(t)

	if err := db.PutCredential(&CredentialRecord{Digest: []byte("12345"), Kind: "password"}); err != nil {
		t.Fatalf("PutCredential failed: %v", err)
	}

	got, err := db.GetCredential()
	if err != nil {
		t.Fatalf("GetCredential failed: %v", err)
	}
	if got.Salt != nil {
		t.Errorf("Legacy record should have nil salt, got %q", got.Salt)
	}

	// Overwriting with a salted record must replace the salt, and
	// overwriting a salted record with a legacy one must remove it.
	if err := db.PutCredential(&CredentialRecord{Digest: []byte("x"), Salt: []byte("s"), Kind: "password"}); err != nil {
		t.Fatalf("PutCredential failed: %v", err)
	}
	got, _ = db.GetCredential()
	if got.Salt == nil {
		t.Error("Salt should be present after salted put")
	}
}

func TestDeleteCredentialClearsEverything(t *testing.T) {
	db := openTestStorage(t)

	if err := db.PutCredential(&CredentialRecord{Digest: []byte("d"), Salt: []byte("s"), Kind: "pin"}); err != nil {
		t.Fatalf("PutCredential failed: %v", err)
	}
	if err := db.SetLockFlag(true); err != nil {
		t.Fatalf("SetLockFlag failed: %v", err)
	}

	if err := db.DeleteCredential(); err != nil {
		t.Fatalf("DeleteCredential failed: %v", err)
	}

	rec, err := db.GetCredential()
	if err != nil {
		t.Fatalf("GetCredential failed: %v", err)
	}
	if rec != nil {
		t.Error("Credential should be gone after delete")
	}
	locked, err := db.GetLockFlag()
	if err != nil {
		t.Fatalf("GetLockFlag failed: %v", err)
	}
	if locked {
		t.Error("Lock flag should be cleared by DeleteCredential")
	}

	// Idempotent
	if err := db.DeleteCredential(); err != nil {
		t.Errorf("Second DeleteCredential should be a no-op, got %v", err)
	}
}

func TestRecordOperations(t *testing.T) {
	db := openTestStorage(t)

	if err := db.PutRecord(TradesBucket, []byte("k1"), []byte("v1")); err != nil {
		t.Fatalf("PutRecord failed: %v", err)
	}
	if err := db.PutRecord(TradesBucket, []byte("k2"), []byte("v2")); err != nil {
		t.Fatalf("PutRecord failed: %v", err)
	}

	v, err := db.GetRecord(TradesBucket, []byte("k1"))
	if err != nil {
		t.Fatalf("GetRecord failed: %v", err)
	}
	if string(v) != "v1" {
		t.Errorf("Expected v1, got %q", v)
	}

	missing, err := db.GetRecord(TradesBucket, []byte("nope"))
	if err != nil {
		t.Fatalf("GetRecord failed: %v", err)
	}
	if missing != nil {
		t.Error("Missing record should return nil")
	}

	var count int
	err = db.ForEachRecord(TradesBucket, func(k, v []byte) error {
		count++
		return nil
	})
	if err != nil {
		t.Fatalf("ForEachRecord failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 records, got %d", count)
	}

	if err := db.DeleteRecord(TradesBucket, []byte("k1")); err != nil {
		t.Fatalf("DeleteRecord failed: %v", err)
	}
	v, _ = db.GetRecord(TradesBucket, []byte("k1"))
	if v != nil {
		t.Error("Record should be gone after delete")
	}
}

func TestForEachPrefix(t *testing.T) {
	db := openTestStorage(t)

	keys := []string{"rev:1:1", "rev:1:2", "rev:2:1", "other"}
	for _, k := range keys {
		if err := db.PutRecord(JournalBucket, []byte(k), []byte("x")); err != nil {
			t.Fatalf("PutRecord failed: %v", err)
		}
	}

	var got []string
	err := db.ForEachPrefix(JournalBucket, []byte("rev:1:"), func(k, v []byte) error {
		got = append(got, string(k))
		return nil
	})
	if err != nil {
		t.Fatalf("ForEachPrefix failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Expected 2 prefixed records, got %v", got)
	}
}

func TestNextID(t *testing.T) {
	db := openTestStorage(t)

	id1, err := db.NextID(TradesBucket)
	if err != nil {
		t.Fatalf("NextID failed: %v", err)
	}
	id2, err := db.NextID(TradesBucket)
	if err != nil {
		t.Fatalf("NextID failed: %v", err)
	}
	if id2 != id1+1 {
		t.Errorf("Expected sequential IDs, got %d then %d", id1, id2)
	}
}

func TestWipeKeepsCredential(t *testing.T) {
	db := openTestStorage(t)

	if err := db.PutCredential(&CredentialRecord{Digest: []byte("d"), Salt: []byte("s"), Kind: "pin"}); err != nil {
		t.Fatalf("PutCredential failed: %v", err)
	}
	if err := db.PutRecord(TradesBucket, []byte("t"), []byte("x")); err != nil {
		t.Fatalf("PutRecord failed: %v", err)
	}
	if err := db.PutRecord(JournalBucket, []byte("j"), []byte("x")); err != nil {
		t.Fatalf("PutRecord failed: %v", err)
	}

	if err := db.Wipe(); err != nil {
		t.Fatalf("Wipe failed: %v", err)
	}

	v, _ := db.GetRecord(TradesBucket, []byte("t"))
	if v != nil {
		t.Error("Trades should be wiped")
	}
	v, _ = db.GetRecord(JournalBucket, []byte("j"))
	if v != nil {
		t.Error("Journal should be wiped")
	}
	rec, _ := db.GetCredential()
	if rec == nil {
		t.Error("Credential should survive a wipe")
	}
}

func TestVaultID(t *testing.T) {
	db := openTestStorage(t)

	id1, err := db.GetOrCreateVaultID()
	if err != nil {
		t.Fatalf("GetOrCreateVaultID failed: %v", err)
	}
	if id1 == "" {
		t.Fatal("Vault ID should not be empty")
	}

	id2, err := db.GetOrCreateVaultID()
	if err != nil {
		t.Fatalf("GetOrCreateVaultID failed: %v", err)
	}
	if id1 != id2 {
		t.Errorf("Vault ID should be stable: %s vs %s", id1, id2)
	}
}
