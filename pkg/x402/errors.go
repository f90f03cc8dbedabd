package x402

import "fmt"

// PaymentRequiredError carries the 402 challenge a handler should send
// back to the caller. It is returned by Handler.Verify when no valid
// payment was presented.
type PaymentRequiredError struct {
	Reason  string
	Body    ChallengeResponse
}

func (e *PaymentRequiredError) Error() string {
	return fmt.Sprintf("x402: payment required: %s", e.Reason)
}

// SettlementError indicates the facilitator accepted verification but
// failed to settle the payment on-chain.
type SettlementError struct {
	Reason string
}

func (e *SettlementError) Error() string {
	return fmt.Sprintf("x402: settlement failed: %s", e.Reason)
}
