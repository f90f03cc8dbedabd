// Package x402 implements the HTTP 402 payment challenge/verify/settle
// protocol this gateway speaks with callers and with an external
// facilitator service, over Solana/USDC.
package x402

// PaymentRequirements describes what a caller must pay to access a
// resource. It is returned in the body of a 402 response.
type PaymentRequirements struct {
	Scheme            string            `json:"scheme"`
	Network           string            `json:"network"`
	Asset             string            `json:"asset"`
	MaxAmountRequired string            `json:"maxAmountRequired"`
	Resource          string            `json:"resource"`
	Description       string            `json:"description"`
	MimeType          string            `json:"mimeType"`
	PayTo             string            `json:"payTo"`
	MaxTimeoutSeconds int               `json:"maxTimeoutSeconds"`
	Extra             map[string]string `json:"extra,omitempty"`
}

// ChallengeResponse is the JSON body of a 402 Payment Required response.
type ChallengeResponse struct {
	X402Version int                    `json:"x402Version"`
	Error       string                 `json:"error"`
	Accepts     []PaymentRequirements  `json:"accepts"`
}

// SchemePayload carries the scheme-specific payload of an X-PAYMENT header.
type SchemePayload struct {
	Transaction string `json:"transaction"`
}

// PaymentPayload is the decoded X-PAYMENT header the caller sends back
// after building and signing a payment.
type PaymentPayload struct {
	X402Version int           `json:"x402Version"`
	Scheme      string        `json:"scheme"`
	Network     string        `json:"network"`
	Payload     SchemePayload `json:"payload"`
}

// SettleResponse is the JSON body base64-encoded into X-PAYMENT-RESPONSE
// after a successful settlement.
type SettleResponse struct {
	Success     bool   `json:"success"`
	Transaction string `json:"transaction,omitempty"`
	Network     string `json:"network,omitempty"`
	Error       string `json:"error,omitempty"`
}
