package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
)

// ErrNotConfigured is returned when a provider is asked to verify without a secret key.
var ErrNotConfigured = errors.New("payment provider not configured")

// Transaction is the processor's record of a single charge. Amount is in minor units (kobo).
type Transaction struct {
	ID        int64           `json:"id"`
	Reference string          `json:"reference"`
	Status    string          `json:"status"` // success, failed, abandoned, pending, ...
	Amount    int64           `json:"amount"`
	Currency  string          `json:"currency"`
	PaidAt    string          `json:"paid_at"`
	Channel   string          `json:"channel"`
	Metadata  json.RawMessage `json:"metadata"`
}

// VerifyResponse is the processor envelope returned by a transaction lookup.
// Raw keeps the untouched body so callers can surface it for diagnostics.
type VerifyResponse struct {
	Status  bool         `json:"status"`
	Message string       `json:"message"`
	Data    *Transaction `json:"data"`

	Raw json.RawMessage `json:"-"`
}

// UnmarshalJSON is lenient about the envelope: only a literal true counts as a
// true status, and a data member that is not a transaction object is treated as absent.
// The body must still be a JSON object.
func (r *VerifyResponse) UnmarshalJSON(data []byte) error {
	var env struct {
		Status  json.RawMessage `json:"status"`
		Message json.RawMessage `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	*r = VerifyResponse{Status: bytes.Equal(bytes.TrimSpace(env.Status), []byte("true"))}
	_ = json.Unmarshal(env.Message, &r.Message)
	if d := bytes.TrimSpace(env.Data); len(d) > 0 && d[0] == '{' {
		var tx Transaction
		if err := json.Unmarshal(d, &tx); err == nil {
			r.Data = &tx
		}
	}
	return nil
}

// Verified reports whether the envelope carries a usable transaction.
func (r *VerifyResponse) Verified() bool {
	return r != nil && r.Status && r.Data != nil
}

// Verifier looks up a transaction by reference.
type Verifier interface {
	Configured() bool
	VerifyTransaction(ctx context.Context, reference string) (*VerifyResponse, error)
}
