package journal

import "errors"

// Trade sides
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

var (
	ErrTradeNotFound    = errors.New("trade not found")
	ErrEntryNotFound    = errors.New("journal entry not found")
	ErrStrategyNotFound = errors.New("strategy not found")
	ErrInvalidSide      = errors.New("side must be BUY or SELL")
	ErrInvalidQuantity  = errors.New("quantity must be positive")
	ErrInvalidPrice     = errors.New("price must be positive")
	ErrEmptySymbol      = errors.New("symbol must not be empty")
)

// Trade is a single fill, imported or entered manually.
type Trade struct {
	ID         uint64  `json:"id"`
	Symbol     string  `json:"symbol"`
	Side       string  `json:"side"` // BUY or SELL
	Quantity   float64 `json:"quantity"`
	Price      float64 `json:"price"`
	Timestamp  string  `json:"timestamp"` // RFC 3339, date part used for grouping
	OrderType  string  `json:"order_type"`
	Status     string  `json:"status"`
	Fees       float64 `json:"fees,omitempty"`
	Notes      string  `json:"notes,omitempty"`
	StrategyID uint64  `json:"strategy_id,omitempty"`
}

// PairedTrade is a closed round trip between an entry fill and an exit fill.
type PairedTrade struct {
	Symbol          string  `json:"symbol"`
	EntryTradeID    uint64  `json:"entry_trade_id"`
	ExitTradeID     uint64  `json:"exit_trade_id"`
	Quantity        float64 `json:"quantity"`
	EntryPrice      float64 `json:"entry_price"`
	ExitPrice       float64 `json:"exit_price"`
	EntryTimestamp  string  `json:"entry_timestamp"`
	ExitTimestamp   string  `json:"exit_timestamp"`
	GrossProfitLoss float64 `json:"gross_profit_loss"`
	EntryFees       float64 `json:"entry_fees"`
	ExitFees        float64 `json:"exit_fees"`
	NetProfitLoss   float64 `json:"net_profit_loss"`
	StrategyID      uint64  `json:"strategy_id,omitempty"`
}

// DailyPnL is one calendar day's aggregate, the calendar view's data source.
type DailyPnL struct {
	Date       string  `json:"date"` // YYYY-MM-DD
	ProfitLoss float64 `json:"profit_loss"`
	TradeCount int     `json:"trade_count"`
}

// SymbolPnL aggregates closed positions per symbol.
type SymbolPnL struct {
	Symbol          string  `json:"symbol"`
	ClosedPositions int     `json:"closed_positions"`
	TotalGrossPnL   float64 `json:"total_gross_pnl"`
	TotalNetPnL     float64 `json:"total_net_pnl"`
	TotalFees       float64 `json:"total_fees"`
	WinningTrades   int     `json:"winning_trades"`
	LosingTrades    int     `json:"losing_trades"`
	WinRate         float64 `json:"win_rate"`
}

// Metrics is the summary block shown above the calendar.
type Metrics struct {
	TotalTrades   int     `json:"total_trades"`
	ClosedTrades  int     `json:"closed_trades"`
	TotalNetPnL   float64 `json:"total_net_pnl"`
	TotalGrossPnL float64 `json:"total_gross_pnl"`
	TotalFees     float64 `json:"total_fees"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	WinRate       float64 `json:"win_rate"`
	AverageWin    float64 `json:"average_win"`
	AverageLoss   float64 `json:"average_loss"`
	LargestWin    float64 `json:"largest_win"`
	LargestLoss   float64 `json:"largest_loss"`
}

// Entry is a journal entry backing the journal editor.
type Entry struct {
	ID      uint64 `json:"id"`
	Date    string `json:"date"` // YYYY-MM-DD
	Title   string `json:"title"`
	Content string `json:"content"`
	Created string `json:"created"`
	Updated string `json:"updated"`
}

// Revision records one edit of an entry as a unified diff against the
// previous content.
type Revision struct {
	Seq  uint64 `json:"seq"`
	Time string `json:"time"`
	Diff string `json:"diff"`
}

// Strategy groups trades and carries its own checklist.
type Strategy struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
}

// ChecklistItem is one line of a strategy's pre- or post-trade checklist.
type ChecklistItem struct {
	ID         uint64 `json:"id"`
	StrategyID uint64 `json:"strategy_id"`
	Text       string `json:"text"`
	Type       string `json:"type"` // "pre" or "post"
	SortOrder  int    `json:"sort_order"`
}
