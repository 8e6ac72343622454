package dto

import "time"

type ReportResponse struct {
	ReceiptID   string     `json:"receipt_id"`
	Status      string     `json:"status"`
	Available   bool       `json:"available"`
	RetryCount  int        `json:"retry_count"`
	NextRetryAt *time.Time `json:"next_retry_at"`
	LastError   *string    `json:"last_error"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
