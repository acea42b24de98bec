package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/live-labs/tradebutler/internal/journal"
)

// JournalHandler handles trade, P&L, journal-entry, and checklist requests.
type JournalHandler struct {
	Journal *journal.Service
}

func idParam(r *http.Request) (uint64, error) {
	return strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
}

func pairingMethod(r *http.Request) journal.PairingMethod {
	if journal.PairingMethod(r.URL.Query().Get("method")) == journal.LIFO {
		return journal.LIFO
	}
	return journal.FIFO
}

// dateRange reads the optional inclusive start/end date bounds.
func dateRange(r *http.Request) (start, end string) {
	q := r.URL.Query()
	return q.Get("start"), q.Get("end")
}

// journalError maps service errors onto HTTP status codes.
func journalError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, journal.ErrTradeNotFound),
		errors.Is(err, journal.ErrEntryNotFound),
		errors.Is(err, journal.ErrStrategyNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, journal.ErrInvalidSide),
		errors.Is(err, journal.ErrInvalidQuantity),
		errors.Is(err, journal.ErrInvalidPrice),
		errors.Is(err, journal.ErrEmptySymbol):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// CreateTrade stores a new trade.
func (h *JournalHandler) CreateTrade(w http.ResponseWriter, r *http.Request) {
	var t journal.Trade
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	id, err := h.Journal.AddTrade(&t)
	if err != nil {
		journalError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]uint64{"id": id})
}

// ListTrades returns all trades in timestamp order.
func (h *JournalHandler) ListTrades(w http.ResponseWriter, r *http.Request) {
	trades, err := h.Journal.ListTrades()
	if err != nil {
		journalError(w, err)
		return
	}
	if trades == nil {
		trades = []journal.Trade{}
	}
	writeJSON(w, http.StatusOK, trades)
}

// GetTrade returns one trade.
func (h *JournalHandler) GetTrade(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		http.Error(w, "invalid trade id", http.StatusBadRequest)
		return
	}
	t, err := h.Journal.GetTrade(id)
	if err != nil {
		journalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// UpdateTrade replaces one trade.
func (h *JournalHandler) UpdateTrade(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		http.Error(w, "invalid trade id", http.StatusBadRequest)
		return
	}
	var t journal.Trade
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if err := h.Journal.UpdateTrade(id, &t); err != nil {
		journalError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteTrade removes one trade.
func (h *JournalHandler) DeleteTrade(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		http.Error(w, "invalid trade id", http.StatusBadRequest)
		return
	}
	if err := h.Journal.DeleteTrade(id); err != nil {
		journalError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ImportTrades reads a CSV body and inserts the trades it contains.
func (h *JournalHandler) ImportTrades(w http.ResponseWriter, r *http.Request) {
	ids, err := h.Journal.ImportCSV(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if ids == nil {
		ids = []uint64{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"imported": len(ids), "ids": ids})
}

// DailyPnL returns per-day aggregates for the calendar view, optionally
// restricted by ?start= and ?end= dates.
func (h *JournalHandler) DailyPnL(w http.ResponseWriter, r *http.Request) {
	start, end := dateRange(r)
	daily, err := h.Journal.DailyPnL(pairingMethod(r), start, end)
	if err != nil {
		journalError(w, err)
		return
	}
	if daily == nil {
		daily = []journal.DailyPnL{}
	}
	writeJSON(w, http.StatusOK, daily)
}

// SymbolPnL returns per-symbol aggregates.
func (h *JournalHandler) SymbolPnL(w http.ResponseWriter, r *http.Request) {
	start, end := dateRange(r)
	symbols, err := h.Journal.SymbolPnL(pairingMethod(r), start, end)
	if err != nil {
		journalError(w, err)
		return
	}
	if symbols == nil {
		symbols = []journal.SymbolPnL{}
	}
	writeJSON(w, http.StatusOK, symbols)
}

// Metrics returns the summary metrics block.
func (h *JournalHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	start, end := dateRange(r)
	m, err := h.Journal.Metrics(pairingMethod(r), start, end)
	if err != nil {
		journalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

type entryRequest struct {
	Date    string `json:"date"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// CreateEntry stores a new journal entry.
func (h *JournalHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	id, err := h.Journal.CreateEntry(req.Date, req.Title, req.Content)
	if err != nil {
		journalError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]uint64{"id": id})
}

// ListEntries returns all journal entries, newest first.
func (h *JournalHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Journal.ListEntries()
	if err != nil {
		journalError(w, err)
		return
	}
	if entries == nil {
		entries = []journal.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// GetEntry returns one journal entry.
func (h *JournalHandler) GetEntry(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		http.Error(w, "invalid entry id", http.StatusBadRequest)
		return
	}
	entry, err := h.Journal.GetEntry(id)
	if err != nil {
		journalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// UpdateEntry replaces an entry's title and content, recording a revision.
func (h *JournalHandler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		http.Error(w, "invalid entry id", http.StatusBadRequest)
		return
	}
	var req entryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if err := h.Journal.UpdateEntry(id, req.Title, req.Content); err != nil {
		journalError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteEntry removes an entry, its revisions, and checklist responses.
func (h *JournalHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		http.Error(w, "invalid entry id", http.StatusBadRequest)
		return
	}
	if err := h.Journal.DeleteEntry(id); err != nil {
		journalError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// EntryHistory returns an entry's revision diffs.
func (h *JournalHandler) EntryHistory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		http.Error(w, "invalid entry id", http.StatusBadRequest)
		return
	}
	history, err := h.Journal.EntryHistory(id)
	if err != nil {
		journalError(w, err)
		return
	}
	if history == nil {
		history = []journal.Revision{}
	}
	writeJSON(w, http.StatusOK, history)
}

type strategyRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

// CreateStrategy stores a new strategy.
func (h *JournalHandler) CreateStrategy(w http.ResponseWriter, r *http.Request) {
	var req strategyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	id, err := h.Journal.CreateStrategy(req.Name, req.Description, req.Color)
	if err != nil {
		journalError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]uint64{"id": id})
}

// ListStrategies returns all strategies.
func (h *JournalHandler) ListStrategies(w http.ResponseWriter, r *http.Request) {
	strategies, err := h.Journal.ListStrategies()
	if err != nil {
		journalError(w, err)
		return
	}
	if strategies == nil {
		strategies = []journal.Strategy{}
	}
	writeJSON(w, http.StatusOK, strategies)
}

// DeleteStrategy removes a strategy and its checklist.
func (h *JournalHandler) DeleteStrategy(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		http.Error(w, "invalid strategy id", http.StatusBadRequest)
		return
	}
	if err := h.Journal.DeleteStrategy(id); err != nil {
		journalError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetChecklist returns a strategy's checklist items.
func (h *JournalHandler) GetChecklist(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		http.Error(w, "invalid strategy id", http.StatusBadRequest)
		return
	}
	items, err := h.Journal.GetChecklist(id)
	if err != nil {
		journalError(w, err)
		return
	}
	if items == nil {
		items = []journal.ChecklistItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

// SaveChecklistItem creates or overwrites a checklist item.
func (h *JournalHandler) SaveChecklistItem(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		http.Error(w, "invalid strategy id", http.StatusBadRequest)
		return
	}
	var item journal.ChecklistItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	item.StrategyID = id
	itemID, err := h.Journal.SaveChecklistItem(&item)
	if err != nil {
		journalError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]uint64{"id": itemID})
}

// DeleteChecklistItem removes one checklist item.
func (h *JournalHandler) DeleteChecklistItem(w http.ResponseWriter, r *http.Request) {
	strategyID, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid strategy id", http.StatusBadRequest)
		return
	}
	itemID, err := strconv.ParseUint(chi.URLParam(r, "item"), 10, 64)
	if err != nil {
		http.Error(w, "invalid item id", http.StatusBadRequest)
		return
	}
	if err := h.Journal.DeleteChecklistItem(strategyID, itemID); err != nil {
		journalError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type responsesRequest struct {
	Responses map[string]bool `json:"responses"`
}

// SaveResponses stores the checked state of checklist items for an entry.
func (h *JournalHandler) SaveResponses(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		http.Error(w, "invalid entry id", http.StatusBadRequest)
		return
	}
	var req responsesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	responses := make(map[uint64]bool, len(req.Responses))
	for key, checked := range req.Responses {
		itemID, err := strconv.ParseUint(key, 10, 64)
		if err != nil {
			http.Error(w, "invalid item id in responses", http.StatusBadRequest)
			return
		}
		responses[itemID] = checked
	}
	if err := h.Journal.SaveChecklistResponses(id, responses); err != nil {
		journalError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetResponses returns the checked state saved for an entry.
func (h *JournalHandler) GetResponses(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		http.Error(w, "invalid entry id", http.StatusBadRequest)
		return
	}
	responses, err := h.Journal.GetChecklistResponses(id)
	if err != nil {
		journalError(w, err)
		return
	}
	encoded := make(map[string]bool, len(responses))
	for itemID, checked := range responses {
		encoded[strconv.FormatUint(itemID, 10)] = checked
	}
	writeJSON(w, http.StatusOK, encoded)
}
