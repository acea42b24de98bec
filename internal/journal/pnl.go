package journal

import (
	"sort"
	"strings"
)

// dateOf extracts the YYYY-MM-DD part of a timestamp.
func dateOf(timestamp string) string {
	if idx := strings.IndexByte(timestamp, 'T'); idx > 0 {
		return timestamp[:idx]
	}
	if idx := strings.IndexByte(timestamp, ' '); idx > 0 {
		return timestamp[:idx]
	}
	return timestamp
}

// inRange reports whether a YYYY-MM-DD date falls inside the inclusive
// [start, end] range. Empty bounds are open.
func inRange(date, start, end string) bool {
	if start != "" && date < start {
		return false
	}
	if end != "" && date > end {
		return false
	}
	return true
}

// DailyPnL groups net P&L by the exit date of each closed pair, together
// with the number of fills on that day. The count comes solely from
// filled-status fills; a day with closed pairs but no fills in range
// reports zero. Days with fills but no closed pairs appear with zero P&L.
// Empty start/end leave that side of the range open. Sorted by date
// descending.
func (s *Service) DailyPnL(method PairingMethod, start, end string) ([]DailyPnL, error) {
	trades, err := s.ListTrades()
	if err != nil {
		return nil, err
	}

	pnl := make(map[string]float64)
	counts := make(map[string]int)

	for _, t := range trades {
		if !strings.EqualFold(t.Status, "filled") {
			continue
		}
		date := dateOf(t.Timestamp)
		if !inRange(date, start, end) {
			continue
		}
		counts[date]++
	}
	for date := range counts {
		pnl[date] = 0
	}

	for _, p := range PairTrades(trades, method) {
		date := dateOf(p.ExitTimestamp)
		if !inRange(date, start, end) {
			continue
		}
		pnl[date] += p.NetProfitLoss
	}

	daily := make([]DailyPnL, 0, len(pnl))
	for date, v := range pnl {
		daily = append(daily, DailyPnL{Date: date, ProfitLoss: v, TradeCount: counts[date]})
	}
	sort.Slice(daily, func(i, j int) bool {
		return daily[i].Date > daily[j].Date
	})
	return daily, nil
}

// SymbolPnL aggregates closed pairs per underlying symbol, restricted to
// pairs exiting inside the inclusive [start, end] range, sorted by net P&L
// descending.
func (s *Service) SymbolPnL(method PairingMethod, start, end string) ([]SymbolPnL, error) {
	trades, err := s.ListTrades()
	if err != nil {
		return nil, err
	}

	bySymbol := make(map[string]*SymbolPnL)
	for _, p := range PairTrades(trades, method) {
		if !inRange(dateOf(p.ExitTimestamp), start, end) {
			continue
		}
		symbol := underlyingSymbol(p.Symbol)
		agg, ok := bySymbol[symbol]
		if !ok {
			agg = &SymbolPnL{Symbol: symbol}
			bySymbol[symbol] = agg
		}
		agg.ClosedPositions++
		agg.TotalGrossPnL += p.GrossProfitLoss
		agg.TotalNetPnL += p.NetProfitLoss
		agg.TotalFees += p.EntryFees + p.ExitFees
		if p.NetProfitLoss > 0 {
			agg.WinningTrades++
		} else if p.NetProfitLoss < 0 {
			agg.LosingTrades++
		}
	}

	result := make([]SymbolPnL, 0, len(bySymbol))
	for _, agg := range bySymbol {
		if agg.ClosedPositions > 0 {
			agg.WinRate = float64(agg.WinningTrades) / float64(agg.ClosedPositions) * 100
		}
		result = append(result, *agg)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].TotalNetPnL > result[j].TotalNetPnL
	})
	return result, nil
}

// Metrics computes the summary block over closed pairs exiting inside the
// inclusive [start, end] range.
func (s *Service) Metrics(method PairingMethod, start, end string) (*Metrics, error) {
	trades, err := s.ListTrades()
	if err != nil {
		return nil, err
	}

	var paired []PairedTrade
	for _, p := range PairTrades(trades, method) {
		if inRange(dateOf(p.ExitTimestamp), start, end) {
			paired = append(paired, p)
		}
	}

	m := &Metrics{
		TotalTrades:  len(trades),
		ClosedTrades: len(paired),
	}

	var winSum, lossSum float64
	for _, p := range paired {
		m.TotalNetPnL += p.NetProfitLoss
		m.TotalGrossPnL += p.GrossProfitLoss
		m.TotalFees += p.EntryFees + p.ExitFees
		switch {
		case p.NetProfitLoss > 0:
			m.WinningTrades++
			winSum += p.NetProfitLoss
			if p.NetProfitLoss > m.LargestWin {
				m.LargestWin = p.NetProfitLoss
			}
		case p.NetProfitLoss < 0:
			m.LosingTrades++
			lossSum += p.NetProfitLoss
			if p.NetProfitLoss < m.LargestLoss {
				m.LargestLoss = p.NetProfitLoss
			}
		}
	}
	if m.ClosedTrades > 0 {
		m.WinRate = float64(m.WinningTrades) / float64(m.ClosedTrades) * 100
	}
	if m.WinningTrades > 0 {
		m.AverageWin = winSum / float64(m.WinningTrades)
	}
	if m.LosingTrades > 0 {
		m.AverageLoss = lossSum / float64(m.LosingTrades)
	}
	return m, nil
}
