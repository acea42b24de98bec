// Package journal provides the trade-journal data service: trade storage,
// FIFO/LIFO pairing of entries and exits, daily and per-symbol P&L
// aggregation, journal entries with revision history, and per-strategy
// checklists.
//
// Pairing walks trades in timestamp order per symbol. A BUY first closes
// open short lots, then opens a long lot with any remainder; a SELL mirrors
// that. Partial fills prorate fees by closed quantity. Options contracts
// (detected by symbol shape) have their P&L multiplied by the 100-share
// contract size.
package journal
