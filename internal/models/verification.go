package models

import (
	"encoding/json"

	"storefront/internal/domain"
)

// VerificationResult is the body returned by the verify endpoint.
type VerificationResult struct {
	Status       string          `json:"status"` // success, failed
	Files        []string        `json:"files,omitempty"`
	Reason       string          `json:"reason,omitempty"`
	Message      string          `json:"message,omitempty"`
	TxStatus     string          `json:"txStatus,omitempty"`
	Expected     *int64          `json:"expected,omitempty"`
	Received     *int64          `json:"received,omitempty"`
	Detail       json.RawMessage `json:"detail,omitempty"`
	UsedFallback bool            `json:"usedFallback,omitempty"`
}

// MarshalJSON always emits files on success, as [] when nothing was mapped.
func (r VerificationResult) MarshalJSON() ([]byte, error) {
	type plain VerificationResult
	if r.Status != domain.ResultSuccess {
		return json.Marshal(plain(r))
	}
	files := r.Files
	if files == nil {
		files = []string{}
	}
	return json.Marshal(struct {
		plain
		Files []string `json:"files"`
	}{plain(r), files})
}

func Succeeded(files []string, usedFallback bool) VerificationResult {
	return VerificationResult{Status: domain.ResultSuccess, Files: files, UsedFallback: usedFallback}
}

func Failed(reason, message string) VerificationResult {
	return VerificationResult{Status: domain.ResultFailed, Reason: reason, Message: message}
}
