package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// NewRouter constructs the HTTP handler serving the local RPC boundary.
//
// Lock-screen endpoints (status, unlock) stay reachable while the app is
// locked; everything else sits behind the lock gate and requires the session
// token issued by a successful unlock.
func NewRouter(credHandler *CredentialHandler, journalHandler *JournalHandler, log *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(withRequestLogging(log))

	r.Route("/api", func(r chi.Router) {
		// Reachable while locked
		r.Get("/lock/status", credHandler.Status)
		r.Post("/lock/unlock", credHandler.Unlock)
		r.Post("/credential/forget", credHandler.Forget)

		// Everything else requires the app to be unlocked
		r.Group(func(r chi.Router) {
			r.Use(credHandler.lockGate(credHandler.Sessions))

			r.Post("/lock/lock", credHandler.Lock)
			r.Put("/credential", credHandler.SetCredential)
			r.Delete("/credential", credHandler.DeleteCredential)

			r.Post("/trades", journalHandler.CreateTrade)
			r.Get("/trades", journalHandler.ListTrades)
			r.Post("/trades/import", journalHandler.ImportTrades)
			r.Get("/trades/{id}", journalHandler.GetTrade)
			r.Put("/trades/{id}", journalHandler.UpdateTrade)
			r.Delete("/trades/{id}", journalHandler.DeleteTrade)

			r.Get("/pnl/daily", journalHandler.DailyPnL)
			r.Get("/pnl/symbols", journalHandler.SymbolPnL)
			r.Get("/metrics", journalHandler.Metrics)

			r.Post("/journal", journalHandler.CreateEntry)
			r.Get("/journal", journalHandler.ListEntries)
			r.Get("/journal/{id}", journalHandler.GetEntry)
			r.Put("/journal/{id}", journalHandler.UpdateEntry)
			r.Delete("/journal/{id}", journalHandler.DeleteEntry)
			r.Get("/journal/{id}/history", journalHandler.EntryHistory)
			r.Get("/journal/{id}/checklist", journalHandler.GetResponses)
			r.Put("/journal/{id}/checklist", journalHandler.SaveResponses)

			r.Post("/strategies", journalHandler.CreateStrategy)
			r.Get("/strategies", journalHandler.ListStrategies)
			r.Delete("/strategies/{id}", journalHandler.DeleteStrategy)
			r.Get("/strategies/{id}/checklist", journalHandler.GetChecklist)
			r.Post("/strategies/{id}/checklist", journalHandler.SaveChecklistItem)
			r.Delete("/strategies/{id}/checklist/{item}", journalHandler.DeleteChecklistItem)
		})
	})

	return r
}
