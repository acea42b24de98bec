package journal

import (
	"sort"
	"strings"
)

// PairingMethod selects which open lot a closing fill is matched against.
type PairingMethod string

const (
	FIFO PairingMethod = "fifo"
	LIFO PairingMethod = "lifo"
)

// optionsMultiplier is the contract size applied to options P&L.
const optionsMultiplier = 100.0

// qtyEpsilon treats residual quantities below it as fully closed.
const qtyEpsilon = 0.0001

// openLot is an unmatched portion of a fill.
type openLot struct {
	tradeID    uint64
	qty        float64
	price      float64
	timestamp  string
	fees       float64
	strategyID uint64
}

// isOptionsSymbol reports whether a symbol looks like an options contract,
// e.g. SPY251218C00679000: underlying, 6-digit date, C/P, strike.
func isOptionsSymbol(symbol string) bool {
	if len(symbol) < 10 {
		return false
	}
	if !strings.ContainsAny(symbol, "CP") {
		return false
	}

	hasDate := false
	digits := 0
	for _, c := range symbol {
		if c >= '0' && c <= '9' {
			digits++
			if digits >= 6 {
				hasDate = true
				break
			}
		} else {
			digits = 0
		}
	}
	return hasDate || len(symbol) > 15
}

// underlyingSymbol extracts the base symbol from an options contract,
// e.g. SPY251218C00679000 -> SPY. Plain symbols pass through unchanged.
func underlyingSymbol(symbol string) string {
	for i, c := range symbol {
		if c >= '0' && c <= '9' {
			if i == 0 {
				return symbol
			}
			return symbol[:i]
		}
	}
	return symbol
}

// PairTrades matches entry and exit fills per symbol in timestamp order and
// returns the closed round trips. Unmatched quantity remains as open
// positions and does not appear in the result.
func PairTrades(trades []Trade, method PairingMethod) []PairedTrade {
	sorted := make([]Trade, len(trades))
	copy(sorted, trades)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp < sorted[j].Timestamp
	})

	var paired []PairedTrade
	long := make(map[string][]openLot)  // BUY opens, SELL closes
	short := make(map[string][]openLot) // SELL opens, BUY closes

	for _, trade := range sorted {
		switch strings.ToUpper(trade.Side) {
		case SideBuy:
			paired = closeAgainst(paired, short, long, trade, false, method)
		case SideSell:
			paired = closeAgainst(paired, long, short, trade, true, method)
		}
	}

	return paired
}

// closeAgainst closes the incoming fill against lots in closing, then opens
// a lot in opening with any remainder. longExit is true when the incoming
// fill is a SELL closing long lots (P&L = exit - entry); for a BUY closing
// short lots the sign flips.
func closeAgainst(paired []PairedTrade, closing, opening map[string][]openLot, trade Trade, longExit bool, method PairingMethod) []PairedTrade {
	symbol := trade.Symbol
	remaining := trade.Quantity
	totalQty := trade.Quantity
	totalFees := trade.Fees
	multiplier := 1.0
	if isOptionsSymbol(symbol) {
		multiplier = optionsMultiplier
	}

	lots := closing[symbol]
	for remaining > qtyEpsilon && len(lots) > 0 {
		idx := 0
		if method == LIFO {
			idx = len(lots) - 1
		}
		lot := lots[idx]

		closeQty := remaining
		if lot.qty < closeQty {
			closeQty = lot.qty
		}

		// Prorate fees by the share of each fill being closed
		lotFees := lot.fees * (closeQty / lot.qty)
		tradeFees := totalFees * (closeQty / totalQty)

		// The open lot is always the entry side of the pair. For a long
		// the exit price minus entry price is the gain; for a short the
		// sign flips.
		gross := (trade.Price - lot.price) * closeQty
		if !longExit {
			gross = (lot.price - trade.Price) * closeQty
		}

		p := PairedTrade{
			Symbol:         symbol,
			Quantity:       closeQty,
			EntryTradeID:   lot.tradeID,
			ExitTradeID:    trade.ID,
			EntryPrice:     lot.price,
			ExitPrice:      trade.Price,
			EntryTimestamp: lot.timestamp,
			ExitTimestamp:  trade.Timestamp,
			EntryFees:      lotFees,
			ExitFees:       tradeFees,
		}
		p.GrossProfitLoss = gross * multiplier
		p.NetProfitLoss = (gross - lotFees - tradeFees) * multiplier
		p.StrategyID = lot.strategyID
		if p.StrategyID == 0 {
			p.StrategyID = trade.StrategyID
		}
		paired = append(paired, p)

		remaining -= closeQty
		lot.qty -= closeQty
		lot.fees -= lotFees
		if lot.qty < qtyEpsilon {
			lots = append(lots[:idx], lots[idx+1:]...)
		} else {
			lots[idx] = lot
		}
	}
	closing[symbol] = lots

	if remaining > qtyEpsilon {
		opening[symbol] = append(opening[symbol], openLot{
			tradeID:    trade.ID,
			qty:        remaining,
			price:      trade.Price,
			timestamp:  trade.Timestamp,
			fees:       totalFees * (remaining / totalQty),
			strategyID: trade.StrategyID,
		})
	}

	return paired
}
