package journal

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/live-labs/tradebutler/internal/storage"
)

// Journal bucket key prefixes
var (
	entryPrefix    = []byte("entry:")
	revisionPrefix = []byte("rev:")
)

func entryKey(id uint64) []byte {
	key := make([]byte, len(entryPrefix)+8)
	copy(key, entryPrefix)
	binary.BigEndian.PutUint64(key[len(entryPrefix):], id)
	return key
}

func revisionKey(entryID, seq uint64) []byte {
	key := make([]byte, len(revisionPrefix)+16)
	copy(key, revisionPrefix)
	binary.BigEndian.PutUint64(key[len(revisionPrefix):], entryID)
	binary.BigEndian.PutUint64(key[len(revisionPrefix)+8:], seq)
	return key
}

func revisionEntryPrefix(entryID uint64) []byte {
	key := make([]byte, len(revisionPrefix)+8)
	copy(key, revisionPrefix)
	binary.BigEndian.PutUint64(key[len(revisionPrefix):], entryID)
	return key
}

// CreateEntry stores a new journal entry and returns its ID.
func (s *Service) CreateEntry(date, title, content string) (uint64, error) {
	id, err := s.db.NextID(storage.JournalBucket)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate entry ID: %w", err)
	}

	now := time.Now().Format(time.RFC3339)
	entry := Entry{
		ID:      id,
		Date:    date,
		Title:   title,
		Content: content,
		Created: now,
		Updated: now,
	}
	if err := s.putEntry(&entry); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Service) putEntry(entry *Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}
	if err := s.db.PutRecord(storage.JournalBucket, entryKey(entry.ID), data); err != nil {
		return fmt.Errorf("failed to store entry: %w", err)
	}
	return nil
}

// GetEntry retrieves a journal entry by ID.
func (s *Service) GetEntry(id uint64) (*Entry, error) {
	data, err := s.db.GetRecord(storage.JournalBucket, entryKey(id))
	if err != nil {
		return nil, fmt.Errorf("failed to read entry: %w", err)
	}
	if data == nil {
		return nil, ErrEntryNotFound
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entry: %w", err)
	}
	return &entry, nil
}

// ListEntries returns all journal entries, newest entry date first.
func (s *Service) ListEntries() ([]Entry, error) {
	var entries []Entry
	err := s.db.ForEachPrefix(storage.JournalBucket, entryPrefix, func(k, v []byte) error {
		var entry Entry
		if err := json.Unmarshal(v, &entry); err != nil {
			return err
		}
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	// Newest first; ties broken by ID so ordering is stable
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Date != entries[j].Date {
			return entries[i].Date > entries[j].Date
		}
		return entries[i].ID > entries[j].ID
	})
	return entries, nil
}

// UpdateEntry replaces an entry's title and content. When the content
// changes, a unified diff of old versus new is recorded as a revision.
func (s *Service) UpdateEntry(id uint64, title, content string) error {
	entry, err := s.GetEntry(id)
	if err != nil {
		return err
	}

	if entry.Content != content {
		seq, err := s.db.NextID(storage.JournalBucket)
		if err != nil {
			return fmt.Errorf("failed to allocate revision ID: %w", err)
		}
		rev := Revision{
			Seq:  seq,
			Time: time.Now().Format(time.RFC3339),
			Diff: unifiedDiff(entry.Content, content),
		}
		data, err := json.Marshal(rev)
		if err != nil {
			return fmt.Errorf("failed to marshal revision: %w", err)
		}
		if err := s.db.PutRecord(storage.JournalBucket, revisionKey(id, seq), data); err != nil {
			return fmt.Errorf("failed to store revision: %w", err)
		}
	}

	entry.Title = title
	entry.Content = content
	entry.Updated = time.Now().Format(time.RFC3339)
	return s.putEntry(entry)
}

// DeleteEntry removes an entry along with its revisions and checklist
// responses.
func (s *Service) DeleteEntry(id uint64) error {
	if _, err := s.GetEntry(id); err != nil {
		return err
	}

	var revKeys [][]byte
	err := s.db.ForEachPrefix(storage.JournalBucket, revisionEntryPrefix(id), func(k, v []byte) error {
		revKeys = append(revKeys, append([]byte(nil), k...))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to scan revisions: %w", err)
	}
	for _, k := range revKeys {
		if err := s.db.DeleteRecord(storage.JournalBucket, k); err != nil {
			return fmt.Errorf("failed to delete revision: %w", err)
		}
	}

	if err := s.db.DeleteRecord(storage.ChecklistBucket, responseKey(id)); err != nil {
		return fmt.Errorf("failed to delete checklist responses: %w", err)
	}
	return s.db.DeleteRecord(storage.JournalBucket, entryKey(id))
}

// EntryHistory returns an entry's revisions in chronological order.
func (s *Service) EntryHistory(id uint64) ([]Revision, error) {
	if _, err := s.GetEntry(id); err != nil {
		return nil, err
	}

	var revisions []Revision
	err := s.db.ForEachPrefix(storage.JournalBucket, revisionEntryPrefix(id), func(k, v []byte) error {
		var rev Revision
		if err := json.Unmarshal(v, &rev); err != nil {
			return err
		}
		revisions = append(revisions, rev)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read revisions: %w", err)
	}
	return revisions, nil
}

// unifiedDiff renders the change from old to new content as a patch.
// Returns empty string if the contents are identical.
func unifiedDiff(oldContent, newContent string) string {
	if oldContent == newContent {
		return ""
	}

	dmp := diffmatchpatch.New()

	// Line-mode diff for better output
	a, b, lineArray := dmp.DiffLinesToChars(oldContent, newContent)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	patches := dmp.PatchMake(oldContent, diffs)
	if len(patches) == 0 {
		return ""
	}

	var result strings.Builder
	result.WriteString("--- previous\n")
	result.WriteString("+++ current\n")
	result.WriteString(dmp.PatchToText(patches))
	return result.String()
}
