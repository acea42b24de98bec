package journal

import (
	"encoding/binary"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/live-labs/tradebutler/internal/storage"
)

// Service is the trade-journal data service backing the RPC boundary.
type Service struct {
	db  *storage.Storage
	log *zap.Logger
}

// NewService creates a journal service backed by the given database.
func NewService(db *storage.Storage, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{db: db, log: log}
}

func tradeKey(id uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, id)
	return key
}

func validateTrade(t *Trade) error {
	if strings.TrimSpace(t.Symbol) == "" {
		return ErrEmptySymbol
	}
	side := strings.ToUpper(t.Side)
	if side != SideBuy && side != SideSell {
		return ErrInvalidSide
	}
	t.Side = side
	if t.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if t.Price <= 0 {
		return ErrInvalidPrice
	}
	return nil
}

// AddTrade validates and stores a trade, returning its assigned ID.
func (s *Service) AddTrade(t *Trade) (uint64, error) {
	if err := validateTrade(t); err != nil {
		return 0, err
	}

	id, err := s.db.NextID(storage.TradesBucket)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate trade ID: %w", err)
	}
	t.ID = id

	data, err := json.Marshal(t)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal trade: %w", err)
	}
	if err := s.db.PutRecord(storage.TradesBucket, tradeKey(id), data); err != nil {
		return 0, fmt.Errorf("failed to store trade: %w", err)
	}
	return id, nil
}

// GetTrade retrieves a trade by ID.
func (s *Service) GetTrade(id uint64) (*Trade, error) {
	data, err := s.db.GetRecord(storage.TradesBucket, tradeKey(id))
	if err != nil {
		return nil, fmt.Errorf("failed to read trade: %w", err)
	}
	if data == nil {
		return nil, ErrTradeNotFound
	}
	var t Trade
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to unmarshal trade: %w", err)
	}
	return &t, nil
}

// ListTrades returns all trades sorted by timestamp.
func (s *Service) ListTrades() ([]Trade, error) {
	var trades []Trade
	err := s.db.ForEachRecord(storage.TradesBucket, func(k, v []byte) error {
		var t Trade
		if err := json.Unmarshal(v, &t); err != nil {
			return err
		}
		trades = append(trades, t)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].Timestamp < trades[j].Timestamp
	})
	return trades, nil
}

// UpdateTrade replaces a stored trade, keeping its ID.
func (s *Service) UpdateTrade(id uint64, t *Trade) error {
	if err := validateTrade(t); err != nil {
		return err
	}
	existing, err := s.db.GetRecord(storage.TradesBucket, tradeKey(id))
	if err != nil {
		return fmt.Errorf("failed to read trade: %w", err)
	}
	if existing == nil {
		return ErrTradeNotFound
	}
	t.ID = id
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal trade: %w", err)
	}
	return s.db.PutRecord(storage.TradesBucket, tradeKey(id), data)
}

// DeleteTrade removes a trade by ID.
func (s *Service) DeleteTrade(id uint64) error {
	existing, err := s.db.GetRecord(storage.TradesBucket, tradeKey(id))
	if err != nil {
		return fmt.Errorf("failed to read trade: %w", err)
	}
	if existing == nil {
		return ErrTradeNotFound
	}
	return s.db.DeleteRecord(storage.TradesBucket, tradeKey(id))
}

// ImportCSV reads trades from CSV data with a header row of
// symbol,side,quantity,price,timestamp,order_type,status,fees,notes.
// Rows duplicating an existing trade (same symbol, side, quantity, price,
// and timestamp) are skipped. Returns the IDs of inserted trades.
func (s *Service) ImportCSV(r io.Reader) ([]uint64, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"symbol", "side", "quantity", "price", "timestamp"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("missing CSV column %q", required)
		}
	}

	existing, err := s.ListTrades()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(existing))
	for _, t := range existing {
		seen[tradeDedupeKey(&t)] = true
	}

	field := func(row []string, name string) string {
		idx, ok := col[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var ids []uint64
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return ids, fmt.Errorf("failed to read CSV row: %w", err)
		}
		line++

		qty, err := strconv.ParseFloat(field(row, "quantity"), 64)
		if err != nil {
			s.log.Warn("skipping CSV row with bad quantity", zap.Int("line", line))
			continue
		}
		price, err := strconv.ParseFloat(strings.TrimPrefix(field(row, "price"), "$"), 64)
		if err != nil || price == 0 {
			s.log.Warn("skipping CSV row with bad price", zap.Int("line", line))
			continue
		}
		fees := 0.0
		if f := field(row, "fees"); f != "" {
			fees, _ = strconv.ParseFloat(strings.TrimPrefix(f, "$"), 64)
		}

		t := Trade{
			Symbol:    field(row, "symbol"),
			Side:      field(row, "side"),
			Quantity:  qty,
			Price:     price,
			Timestamp: field(row, "timestamp"),
			OrderType: field(row, "order_type"),
			Status:    field(row, "status"),
			Fees:      fees,
			Notes:     field(row, "notes"),
		}
		if t.OrderType == "" {
			t.OrderType = "DAY"
		}
		if t.Status == "" {
			t.Status = "Filled"
		}
		if t.Status == "Cancelled" {
			continue
		}
		if seen[tradeDedupeKey(&t)] {
			continue
		}

		id, err := s.AddTrade(&t)
		if err != nil {
			s.log.Warn("skipping invalid CSV row", zap.Int("line", line), zap.Error(err))
			continue
		}
		seen[tradeDedupeKey(&t)] = true
		ids = append(ids, id)
	}

	s.log.Info("imported trades from CSV", zap.Int("count", len(ids)))
	return ids, nil
}

func tradeDedupeKey(t *Trade) string {
	return fmt.Sprintf("%s|%s|%g|%g|%s", t.Symbol, strings.ToUpper(t.Side), t.Quantity, t.Price, t.Timestamp)
}
