package authority

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter constructs a router with all clicker endpoints registered.
func NewRouter(store *Store) http.Handler {
	h := NewHandler(store)
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Post("/clicker/get-me", h.GetMeHandler)
	r.Post("/clicker/create-user", h.CreateUserHandler)
	r.Post("/clicker/update-last-login", h.UpdateLastLoginHandler)
	r.Post("/clicker/update-energy", h.UpdateEnergyHandler)
	r.Post("/clicker/update-balance", h.UpdateBalanceHandler)
	r.Post("/clicker/update-boost", h.UpdateBoostHandler)
	r.Post("/clicker/update-ability", h.UpdateAbilityHandler)
	r.Post("/clicker/referral-claim-reward", h.ClaimReferralHandler)

	return r
}
