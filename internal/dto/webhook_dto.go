package dto

// PaymentWebhook is the envelope posted by the payment provider.
type PaymentWebhook struct {
	Type string         `json:"type"`
	ID   string         `json:"id"`
	Data map[string]any `json:"data"`
}
