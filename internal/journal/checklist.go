package journal

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/live-labs/tradebutler/internal/storage"
)

var (
	strategyPrefix = []byte("strategy:")
	itemPrefix     = []byte("item:")
)

func strategyKey(id uint64) []byte {
	key := make([]byte, len(strategyPrefix)+8)
	copy(key, strategyPrefix)
	binary.BigEndian.PutUint64(key[len(strategyPrefix):], id)
	return key
}

func itemKey(strategyID, itemID uint64) []byte {
	key := make([]byte, len(itemPrefix)+16)
	copy(key, itemPrefix)
	binary.BigEndian.PutUint64(key[len(itemPrefix):], strategyID)
	binary.BigEndian.PutUint64(key[len(itemPrefix)+8:], itemID)
	return key
}

func itemStrategyPrefix(strategyID uint64) []byte {
	key := make([]byte, len(itemPrefix)+8)
	copy(key, itemPrefix)
	binary.BigEndian.PutUint64(key[len(itemPrefix):], strategyID)
	return key
}

func responseKey(entryID uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, entryID)
	return key
}

// CreateStrategy stores a new strategy and returns its ID.
func (s *Service) CreateStrategy(name, description, color string) (uint64, error) {
	if strings.TrimSpace(name) == "" {
		return 0, fmt.Errorf("strategy name must not be empty")
	}
	id, err := s.db.NextID(storage.JournalBucket)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate strategy ID: %w", err)
	}
	data, err := json.Marshal(&Strategy{ID: id, Name: name, Description: description, Color: color})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal strategy: %w", err)
	}
	if err := s.db.PutRecord(storage.JournalBucket, strategyKey(id), data); err != nil {
		return 0, fmt.Errorf("failed to store strategy: %w", err)
	}
	return id, nil
}

// ListStrategies returns all strategies sorted by name.
func (s *Service) ListStrategies() ([]Strategy, error) {
	var strategies []Strategy
	err := s.db.ForEachPrefix(storage.JournalBucket, strategyPrefix, func(k, v []byte) error {
		var st Strategy
		if err := json.Unmarshal(v, &st); err != nil {
			return err
		}
		strategies = append(strategies, st)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list strategies: %w", err)
	}
	sort.Slice(strategies, func(i, j int) bool {
		return strategies[i].Name < strategies[j].Name
	})
	return strategies, nil
}

// DeleteStrategy removes a strategy and its checklist items.
func (s *Service) DeleteStrategy(id uint64) error {
	existing, err := s.db.GetRecord(storage.JournalBucket, strategyKey(id))
	if err != nil {
		return fmt.Errorf("failed to read strategy: %w", err)
	}
	if existing == nil {
		return ErrStrategyNotFound
	}

	var itemKeys [][]byte
	err = s.db.ForEachPrefix(storage.JournalBucket, itemStrategyPrefix(id), func(k, v []byte) error {
		itemKeys = append(itemKeys, append([]byte(nil), k...))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to scan checklist items: %w", err)
	}
	for _, k := range itemKeys {
		if err := s.db.DeleteRecord(storage.JournalBucket, k); err != nil {
			return fmt.Errorf("failed to delete checklist item: %w", err)
		}
	}
	return s.db.DeleteRecord(storage.JournalBucket, strategyKey(id))
}

// SaveChecklistItem stores a checklist item under its strategy. A zero item
// ID creates a new item; a non-zero ID overwrites.
func (s *Service) SaveChecklistItem(item *ChecklistItem) (uint64, error) {
	if strings.TrimSpace(item.Text) == "" {
		return 0, fmt.Errorf("checklist item text must not be empty")
	}
	existing, err := s.db.GetRecord(storage.JournalBucket, strategyKey(item.StrategyID))
	if err != nil {
		return 0, fmt.Errorf("failed to read strategy: %w", err)
	}
	if existing == nil {
		return 0, ErrStrategyNotFound
	}

	if item.ID == 0 {
		id, err := s.db.NextID(storage.JournalBucket)
		if err != nil {
			return 0, fmt.Errorf("failed to allocate item ID: %w", err)
		}
		item.ID = id
	}
	if item.Type == "" {
		item.Type = "pre"
	}
	data, err := json.Marshal(item)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal checklist item: %w", err)
	}
	if err := s.db.PutRecord(storage.JournalBucket, itemKey(item.StrategyID, item.ID), data); err != nil {
		return 0, fmt.Errorf("failed to store checklist item: %w", err)
	}
	return item.ID, nil
}

// GetChecklist returns a strategy's checklist items in sort order.
func (s *Service) GetChecklist(strategyID uint64) ([]ChecklistItem, error) {
	var items []ChecklistItem
	err := s.db.ForEachPrefix(storage.JournalBucket, itemStrategyPrefix(strategyID), func(k, v []byte) error {
		var item ChecklistItem
		if err := json.Unmarshal(v, &item); err != nil {
			return err
		}
		items = append(items, item)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read checklist: %w", err)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].SortOrder != items[j].SortOrder {
			return items[i].SortOrder < items[j].SortOrder
		}
		return items[i].ID < items[j].ID
	})
	return items, nil
}

// DeleteChecklistItem removes one checklist item.
func (s *Service) DeleteChecklistItem(strategyID, itemID uint64) error {
	return s.db.DeleteRecord(storage.JournalBucket, itemKey(strategyID, itemID))
}

// SaveChecklistResponses stores the checked state of checklist items for a
// journal entry.
func (s *Service) SaveChecklistResponses(entryID uint64, responses map[uint64]bool) error {
	if _, err := s.GetEntry(entryID); err != nil {
		return err
	}

	// JSON object keys must be strings
	encoded := make(map[string]bool, len(responses))
	for id, checked := range responses {
		encoded[strconv.FormatUint(id, 10)] = checked
	}
	data, err := json.Marshal(encoded)
	if err != nil {
		return fmt.Errorf("failed to marshal responses: %w", err)
	}
	return s.db.PutRecord(storage.ChecklistBucket, responseKey(entryID), data)
}

// GetChecklistResponses returns the checked state saved for a journal entry.
// An entry with no saved responses yields an empty map.
func (s *Service) GetChecklistResponses(entryID uint64) (map[uint64]bool, error) {
	data, err := s.db.GetRecord(storage.ChecklistBucket, responseKey(entryID))
	if err != nil {
		return nil, fmt.Errorf("failed to read responses: %w", err)
	}
	responses := make(map[uint64]bool)
	if data == nil {
		return responses, nil
	}
	var encoded map[string]bool
	if err := json.Unmarshal(data, &encoded); err != nil {
		return nil, fmt.Errorf("failed to unmarshal responses: %w", err)
	}
	for key, checked := range encoded {
		id, err := strconv.ParseUint(key, 10, 64)
		if err != nil {
			continue
		}
		responses[id] = checked
	}
	return responses, nil
}
