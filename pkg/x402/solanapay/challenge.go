package solanapay

import (
	"context"
	"fmt"

	"github.com/x402rag/gateway/pkg/x402"
)

// BuildFromChallenge picks the first acceptable requirement from a 402
// ChallengeResponse and builds the X-PAYMENT header for it, returning
// the header alongside the amount (base units) and recipient it pays.
func (b *Builder) BuildFromChallenge(ctx context.Context, challenge x402.ChallengeResponse) (header string, amountBaseUnits string, payTo string, err error) {
	if len(challenge.Accepts) == 0 {
		return "", "", "", fmt.Errorf("solanapay: challenge carries no acceptable payment requirements")
	}
	requirements := challenge.Accepts[0]

	header, err = b.Build(ctx, challenge.X402Version, requirements)
	if err != nil {
		return "", "", "", err
	}
	return header, requirements.MaxAmountRequired, requirements.PayTo, nil
}
