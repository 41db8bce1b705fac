package models

import "time"

// VerificationAudit records the outcome of one verification that reached the processor.
// It is diagnostic only and never consulted when deciding whether to fulfil.
type VerificationAudit struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Reference    string    `gorm:"size:255;not null;index" json:"reference"`
	Outcome      string    `gorm:"size:20;not null;index" json:"outcome"` // FULFILLED, REJECTED
	Reason       string    `gorm:"size:64" json:"reason"`
	TxStatus     string    `gorm:"size:32" json:"tx_status"`
	Expected     int64     `json:"expected"`
	Received     int64     `json:"received"`
	Currency     string    `gorm:"size:3" json:"currency"`
	FileCount    int       `json:"file_count"`
	CartSource   string    `gorm:"size:20" json:"cart_source"`
	UsedFallback bool      `json:"used_fallback"`
	RequestID    string    `gorm:"size:64" json:"request_id"`
	IP           string    `gorm:"size:45" json:"ip"`
	UserAgent    string    `gorm:"size:512" json:"user_agent"`
	CreatedAt    time.Time `json:"created_at"`
}

func (VerificationAudit) TableName() string {
	return "verification_audits"
}
