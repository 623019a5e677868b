package quote

// PaymentGatewayResult is the value object produced by payment-gateway
// collaborators. The aggregate records it but never embeds gateway-specific
// logic.
type PaymentGatewayResult struct {
	Success   bool     `json:"success"`
	Reference string   `json:"reference,omitempty"`
	Details   string   `json:"details,omitempty"`
	Errors    []string `json:"errors,omitempty"`
}

// ToAttemptResult converts a gateway result into the attempt record the
// aggregate stores. The attempt timestamp is stamped by the aggregate.
func (r PaymentGatewayResult) ToAttemptResult() PaymentAttemptResult {
	return PaymentAttemptResult{
		Success:   r.Success,
		Reference: r.Reference,
		Details:   r.Details,
		Errors:    r.Errors,
	}
}

// CardDetails carries raw card input for a payment attempt. Either a
// tokenized method or raw details are supplied, never both.
type CardDetails struct {
	HolderName  string `json:"holderName"`
	Number      string `json:"number"`
	ExpiryMonth int    `json:"expiryMonth"`
	ExpiryYear  int    `json:"expiryYear"`
	CVV         string `json:"cvv"`
}
