package authority

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/tapcraft/clickercore/internal/remote"
)

// Headers the engine attaches to every request.
const (
	headerInitData  = "X-Init-Data"
	headerRequestID = "X-Request-Id"
)

// HandlerProvider wraps a Store and exposes the clicker HTTP handlers.
type HandlerProvider struct {
	store *Store
}

// NewHandler returns a new handler provider.
func NewHandler(store *Store) *HandlerProvider {
	return &HandlerProvider{store: store}
}

// envelope is the common response wrapper: an ok indicator plus an
// endpoint-specific payload flattened alongside it.
type envelope struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`

	User         *remote.User      `json:"user,omitempty"`
	ActiveEnergy *float64          `json:"activeEnergy,omitempty"`
	Balance      *int64            `json:"balance,omitempty"`
	Abilities    *remote.Abilities `json:"abilities,omitempty"`
	Referrals    []remote.Referral `json:"referrals,omitempty"`
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode JSON response", "error", err)

		http.Error(w, `{"error":"internal json encode failure"}`, http.StatusInternalServerError)
	}
}

func writeRejected(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, envelope{OK: false, Error: msg})
}

// token extracts the init-data identity, or writes 401 and returns "".
func token(w http.ResponseWriter, r *http.Request) string {
	t := r.Header.Get(headerInitData)
	if t == "" {
		writeJSON(w, http.StatusUnauthorized, envelope{OK: false, Error: "missing init data"})
	}

	return t
}

// decodeBody reads a small JSON body into dst, rejecting unknown
// fields. An empty body decodes into the zero value.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return true
		}

		writeJSON(w, http.StatusBadRequest, envelope{OK: false, Error: "invalid body"})

		return false
	}

	return true
}

// storeError maps store sentinels onto the wire.
func storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnknownUser):
		writeJSON(w, http.StatusNotFound, envelope{OK: false, Error: "user not found"})
	case errors.Is(err, ErrInsufficientFunds),
		errors.Is(err, ErrMaxLevel),
		errors.Is(err, ErrUnknownAbility),
		errors.Is(err, ErrNoSuchReferral),
		errors.Is(err, ErrUserExists):
		writeRejected(w, err.Error())
	default:
		slog.Error("authority handler failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, envelope{OK: false, Error: "internal error"})
	}
}

// --- Handlers ---

// GetMeHandler handles POST /clicker/get-me.
func (h *HandlerProvider) GetMeHandler(w http.ResponseWriter, r *http.Request) {
	t := token(w, r)
	if t == "" {
		return
	}

	user, err := h.store.GetUser(t)
	if err != nil {
		storeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{OK: true, User: &user})
}

// CreateUserHandler handles POST /clicker/create-user.
func (h *HandlerProvider) CreateUserHandler(w http.ResponseWriter, r *http.Request) {
	t := token(w, r)
	if t == "" {
		return
	}

	var req struct {
		ReferrerID int64 `json:"referrerId"`
	}

	if !decodeBody(w, r, &req) {
		return
	}

	user, err := h.store.CreateUser(t, req.ReferrerID)
	if err != nil {
		storeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{OK: true, User: &user})
}

// UpdateLastLoginHandler handles POST /clicker/update-last-login.
func (h *HandlerProvider) UpdateLastLoginHandler(w http.ResponseWriter, r *http.Request) {
	t := token(w, r)
	if t == "" {
		return
	}

	if err := h.store.TouchLastLogin(t); err != nil {
		storeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{OK: true})
}

// UpdateEnergyHandler handles POST /clicker/update-energy.
func (h *HandlerProvider) UpdateEnergyHandler(w http.ResponseWriter, r *http.Request) {
	t := token(w, r)
	if t == "" {
		return
	}

	var req struct {
		ActiveEnergy int64 `json:"activeEnergy"`
	}

	if !decodeBody(w, r, &req) {
		return
	}

	v, err := h.store.UpdateEnergy(t, req.ActiveEnergy)
	if err != nil {
		storeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{OK: true, ActiveEnergy: &v})
}

// UpdateBalanceHandler handles POST /clicker/update-balance.
func (h *HandlerProvider) UpdateBalanceHandler(w http.ResponseWriter, r *http.Request) {
	t := token(w, r)
	if t == "" {
		return
	}

	var req struct {
		Balance int64 `json:"balance"`
	}

	if !decodeBody(w, r, &req) {
		return
	}

	err := h.store.AddBalance(t, req.Balance, r.Header.Get(headerRequestID))
	if err != nil {
		storeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{OK: true})
}

// UpdateBoostHandler handles POST /clicker/update-boost.
func (h *HandlerProvider) UpdateBoostHandler(w http.ResponseWriter, r *http.Request) {
	t := token(w, r)
	if t == "" {
		return
	}

	var req struct {
		LastBoostRun int64 `json:"lastBoostRun"`
	}

	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.store.SetBoostRun(t, req.LastBoostRun); err != nil {
		storeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{OK: true})
}

// UpdateAbilityHandler handles POST /clicker/update-ability.
func (h *HandlerProvider) UpdateAbilityHandler(w http.ResponseWriter, r *http.Request) {
	t := token(w, r)
	if t == "" {
		return
	}

	var req struct {
		AbilityType string `json:"abilityType"`
	}

	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.store.UpgradeAbility(t, req.AbilityType)
	if err != nil {
		storeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		OK:           true,
		Balance:      &res.Balance,
		Abilities:    &res.Abilities,
		ActiveEnergy: &res.ActiveEnergy,
	})
}

// ClaimReferralHandler handles POST /clicker/referral-claim-reward.
func (h *HandlerProvider) ClaimReferralHandler(w http.ResponseWriter, r *http.Request) {
	t := token(w, r)
	if t == "" {
		return
	}

	var req struct {
		ReferredUserID int64 `json:"referredUserId"`
	}

	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.store.ClaimReferral(t, req.ReferredUserID)
	if err != nil {
		storeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		OK:        true,
		Balance:   &res.Balance,
		Referrals: res.Referrals,
	})
}
