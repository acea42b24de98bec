package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/live-labs/tradebutler/internal/credential"
)

// CredentialStore defines the credential operations required by the
// lock-screen and settings endpoints.
type CredentialStore interface {
	HasCredential() (bool, error)
	CredentialKind() (credential.Kind, error)
	Set(secret []byte, kind credential.Kind) error
	Verify(input []byte) (bool, error)
	Delete() error
	IsLocked() (bool, error)
	SetLocked(locked bool) error
}

// Wiper deletes all journal and trade data. The forgot-credential flow runs
// it before the credential itself is deleted.
type Wiper interface {
	Wipe() error
}

// CredentialHandler handles lock-screen and credential settings requests.
type CredentialHandler struct {
	Credentials CredentialStore
	Data        Wiper
	Sessions    *Sessions
}

type statusResponse struct {
	HasCredential bool   `json:"has_credential"`
	Kind          string `json:"kind,omitempty"`
	Locked        bool   `json:"locked"`
}

type secretRequest struct {
	Secret string `json:"secret"`
	Kind   string `json:"kind,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// EngageStartupLock sets the lock flag at process start. A relaunch must
// come up locked whenever a credential exists, regardless of the state the
// previous run exited in; without a credential SetLocked is a no-op.
func (h *CredentialHandler) EngageStartupLock() error {
	return h.Credentials.SetLocked(true)
}

// Status reports credential presence, kind, and lock state.
func (h *CredentialHandler) Status(w http.ResponseWriter, r *http.Request) {
	has, err := h.Credentials.HasCredential()
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	kind, err := h.Credentials.CredentialKind()
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	locked, err := h.Credentials.IsLocked()
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{
		HasCredential: has,
		Kind:          string(kind),
		Locked:        locked,
	})
}

// Unlock verifies the submitted secret, clears the lock flag, and returns a
// session token. The failure message is deliberately generic: it never
// distinguishes a missing record from a wrong secret.
func (h *CredentialHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	var req secretRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	ok, err := h.Credentials.Verify([]byte(req.Secret))
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "incorrect PIN or password", http.StatusUnauthorized)
		return
	}

	if err := h.Credentials.SetLocked(false); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": h.Sessions.Issue()})
}

// Lock sets the lock flag and revokes all session tokens. Locking without a
// stored credential has no effect.
func (h *CredentialHandler) Lock(w http.ResponseWriter, r *http.Request) {
	if err := h.Credentials.SetLocked(true); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.Sessions.Revoke()
	w.WriteHeader(http.StatusNoContent)
}

// SetCredential creates or replaces the stored credential.
func (h *CredentialHandler) SetCredential(w http.ResponseWriter, r *http.Request) {
	var req secretRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	err := h.Credentials.Set([]byte(req.Secret), credential.Kind(req.Kind))
	switch {
	case errors.Is(err, credential.ErrInvalidPIN),
		errors.Is(err, credential.ErrPasswordTooShort),
		errors.Is(err, credential.ErrUnknownKind):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	case err != nil:
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteCredential removes the credential and clears the lock state.
func (h *CredentialHandler) DeleteCredential(w http.ResponseWriter, r *http.Request) {
	if err := h.Credentials.Delete(); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.Sessions.Revoke()
	w.WriteHeader(http.StatusNoContent)
}

// Forget is the forgot-credential flow: wipe all journal data, then delete
// the credential. If the wipe fails the credential is kept so the failure
// can be surfaced and retried.
func (h *CredentialHandler) Forget(w http.ResponseWriter, r *http.Request) {
	if err := h.Data.Wipe(); err != nil {
		http.Error(w, "data wipe failed", http.StatusInternalServerError)
		return
	}
	if err := h.Credentials.Delete(); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.Sessions.Revoke()
	w.WriteHeader(http.StatusNoContent)
}
