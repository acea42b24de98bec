package journal

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestPairTradesLongRoundTrip(t *testing.T) {
	trades := []Trade{
		{ID: 1, Symbol: "AAPL", Side: SideBuy, Quantity: 100, Price: 10, Timestamp: "2024-01-02T09:30:00Z", Fees: 1},
		{ID: 2, Symbol: "AAPL", Side: SideSell, Quantity: 100, Price: 12, Timestamp: "2024-01-02T10:30:00Z", Fees: 1},
	}

	paired := PairTrades(trades, FIFO)
	if len(paired) != 1 {
		t.Fatalf("Expected 1 pair, got %d", len(paired))
	}

	p := paired[0]
	if p.EntryTradeID != 1 || p.ExitTradeID != 2 {
		t.Errorf("Wrong pair direction: entry %d exit %d", p.EntryTradeID, p.ExitTradeID)
	}
	if !almostEqual(p.GrossProfitLoss, 200) {
		t.Errorf("Expected gross 200, got %f", p.GrossProfitLoss)
	}
	if !almostEqual(p.NetProfitLoss, 198) {
		t.Errorf("Expected net 198, got %f", p.NetProfitLoss)
	}
}

func TestPairTradesShortRoundTrip(t *testing.T) {
	trades := []Trade{
		{ID: 1, Symbol: "TSLA", Side: SideSell, Quantity: 50, Price: 20, Timestamp: "2024-01-02T09:30:00Z"},
		{ID: 2, Symbol: "TSLA", Side: SideBuy, Quantity: 50, Price: 15, Timestamp: "2024-01-02T11:00:00Z"},
	}

	paired := PairTrades(trades, FIFO)
	if len(paired) != 1 {
		t.Fatalf("Expected 1 pair, got %d", len(paired))
	}

	p := paired[0]
	// The opening SELL is the entry for a short
	if p.EntryTradeID != 1 || p.ExitTradeID != 2 {
		t.Errorf("Wrong pair direction: entry %d exit %d", p.EntryTradeID, p.ExitTradeID)
	}
	if !almostEqual(p.GrossProfitLoss, 250) {
		t.Errorf("Expected gross 250, got %f", p.GrossProfitLoss)
	}
	if !almostEqual(p.EntryPrice, 20) || !almostEqual(p.ExitPrice, 15) {
		t.Errorf("Expected entry 20 exit 15, got %f / %f", p.EntryPrice, p.ExitPrice)
	}
}

func TestPairTradesPartialFills(t *testing.T) {
	trades := []Trade{
		{ID: 1, Symbol: "MSFT", Side: SideBuy, Quantity: 100, Price: 10, Timestamp: "2024-01-02T09:30:00Z", Fees: 2},
		{ID: 2, Symbol: "MSFT", Side: SideSell, Quantity: 40, Price: 11, Timestamp: "2024-01-02T10:00:00Z", Fees: 1},
		{ID: 3, Symbol: "MSFT", Side: SideSell, Quantity: 60, Price: 12, Timestamp: "2024-01-02T11:00:00Z", Fees: 0.6},
	}

	paired := PairTrades(trades, FIFO)
	if len(paired) != 2 {
		t.Fatalf("Expected 2 pairs, got %d", len(paired))
	}

	first := paired[0]
	if !almostEqual(first.Quantity, 40) {
		t.Errorf("Expected first pair qty 40, got %f", first.Quantity)
	}
	if !almostEqual(first.EntryFees, 0.8) {
		t.Errorf("Expected prorated entry fees 0.8, got %f", first.EntryFees)
	}
	if !almostEqual(first.NetProfitLoss, 38.2) {
		t.Errorf("Expected first net 38.2, got %f", first.NetProfitLoss)
	}

	second := paired[1]
	if !almostEqual(second.Quantity, 60) {
		t.Errorf("Expected second pair qty 60, got %f", second.Quantity)
	}
	if !almostEqual(second.EntryFees, 1.2) {
		t.Errorf("Expected remaining entry fees 1.2, got %f", second.EntryFees)
	}
	if !almostEqual(second.NetProfitLoss, 118.2) {
		t.Errorf("Expected second net 118.2, got %f", second.NetProfitLoss)
	}
}

func TestPairTradesFIFOvsLIFO(t *testing.T) {
	trades := []Trade{
		{ID: 1, Symbol: "NVDA", Side: SideBuy, Quantity: 10, Price: 10, Timestamp: "2024-01-02T09:30:00Z"},
		{ID: 2, Symbol: "NVDA", Side: SideBuy, Quantity: 10, Price: 20, Timestamp: "2024-01-02T10:00:00Z"},
		{ID: 3, Symbol: "NVDA", Side: SideSell, Quantity: 10, Price: 15, Timestamp: "2024-01-02T11:00:00Z"},
	}

	fifo := PairTrades(trades, FIFO)
	if len(fifo) != 1 {
		t.Fatalf("Expected 1 FIFO pair, got %d", len(fifo))
	}
	if fifo[0].EntryTradeID != 1 || !almostEqual(fifo[0].GrossProfitLoss, 50) {
		t.Errorf("FIFO should close the oldest lot: entry %d gross %f", fifo[0].EntryTradeID, fifo[0].GrossProfitLoss)
	}

	lifo := PairTrades(trades, LIFO)
	if len(lifo) != 1 {
		t.Fatalf("Expected 1 LIFO pair, got %d", len(lifo))
	}
	if lifo[0].EntryTradeID != 2 || !almostEqual(lifo[0].GrossProfitLoss, -50) {
		t.Errorf("LIFO should close the newest lot: entry %d gross %f", lifo[0].EntryTradeID, lifo[0].GrossProfitLoss)
	}
}

func TestPairTradesOptionsMultiplier(t *testing.T) {
	trades := []Trade{
		{ID: 1, Symbol: "SPY251218C00679000", Side: SideBuy, Quantity: 1, Price: 1.00, Timestamp: "2024-01-02T09:30:00Z"},
		{ID: 2, Symbol: "SPY251218C00679000", Side: SideSell, Quantity: 1, Price: 1.50, Timestamp: "2024-01-02T10:00:00Z"},
	}

	paired := PairTrades(trades, FIFO)
	if len(paired) != 1 {
		t.Fatalf("Expected 1 pair, got %d", len(paired))
	}
	if !almostEqual(paired[0].GrossProfitLoss, 50) {
		t.Errorf("Options P&L should use the 100x contract size, got %f", paired[0].GrossProfitLoss)
	}
}

func TestPairTradesOpenPositionExcluded(t *testing.T) {
	trades := []Trade{
		{ID: 1, Symbol: "AMD", Side: SideBuy, Quantity: 100, Price: 10, Timestamp: "2024-01-02T09:30:00Z"},
	}
	if paired := PairTrades(trades, FIFO); len(paired) != 0 {
		t.Errorf("Open position should not produce pairs, got %d", len(paired))
	}
}

func TestPairTradesUnordered(t *testing.T) {
	// Exit stored before entry; pairing sorts by timestamp first
	trades := []Trade{
		{ID: 2, Symbol: "AAPL", Side: SideSell, Quantity: 10, Price: 12, Timestamp: "2024-01-02T10:30:00Z"},
		{ID: 1, Symbol: "AAPL", Side: SideBuy, Quantity: 10, Price: 10, Timestamp: "2024-01-02T09:30:00Z"},
	}

	paired := PairTrades(trades, FIFO)
	if len(paired) != 1 {
		t.Fatalf("Expected 1 pair, got %d", len(paired))
	}
	if paired[0].EntryTradeID != 1 {
		t.Errorf("Entry should be the earlier trade, got %d", paired[0].EntryTradeID)
	}
}

func TestIsOptionsSymbol(t *testing.T) {
	tests := []struct {
		symbol string
		want   bool
	}{
		{"SPY", false},
		{"AAPL", false},
		{"CP", false},
		{"SPY251218C00679000", true},
		{"ABR251121P00011000", true},
	}
	for _, tt := range tests {
		if got := isOptionsSymbol(tt.symbol); got != tt.want {
			t.Errorf("isOptionsSymbol(%q) = %v, want %v", tt.symbol, got, tt.want)
		}
	}
}

func TestUnderlyingSymbol(t *testing.T) {
	tests := []struct {
		symbol string
		want   string
	}{
		{"SPY", "SPY"},
		{"SPY251218C00679000", "SPY"},
		{"ABR251121P00011000", "ABR"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := underlyingSymbol(tt.symbol); got != tt.want {
			t.Errorf("underlyingSymbol(%q) = %q, want %q", tt.symbol, got, tt.want)
		}
	}
}
