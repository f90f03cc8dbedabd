// Package solanapay builds the client side of an x402 Solana/USDC
// payment: given a PaymentRequirements challenge and the caller's own
// keypair, it produces the base64 X-PAYMENT header the gateway expects,
// gasless for the caller since the facilitator co-signs as fee payer.
package solanapay

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"

	solanakeys "github.com/x402rag/gateway/internal/solana"
	"github.com/x402rag/gateway/pkg/x402"
)

// Config holds the RPC endpoint and priority-fee parameters a Builder uses.
type Config struct {
	RPCURL                      string
	ComputeUnitLimit            uint32
	ComputeUnitPriceMicroLamports uint64
}

// Builder constructs and partially signs x402 Solana payment transactions
// on behalf of a single wallet.
type Builder struct {
	owner     solana.PrivateKey
	rpcClient *rpc.Client
	cfg       Config
}

// NewBuilder constructs a Builder for the given owner keypair.
func NewBuilder(owner solana.PrivateKey, cfg Config) *Builder {
	if cfg.ComputeUnitLimit == 0 {
		cfg.ComputeUnitLimit = 200_000
	}
	return &Builder{
		owner:     owner,
		rpcClient: rpc.New(cfg.RPCURL),
		cfg:       cfg,
	}
}

// Build constructs a base64 X-PAYMENT header satisfying requirements.
// It ensures the owner's associated token account exists (idempotent,
// owner-paid), builds a versioned-style legacy transaction with the
// facilitator as fee payer, and partially signs it with the owner's
// key only — the facilitator co-signs and submits.
func (b *Builder) Build(ctx context.Context, x402Version int, requirements x402.PaymentRequirements) (string, error) {
	if requirements.Scheme != "exact" {
		return "", fmt.Errorf("solanapay: unsupported scheme %q", requirements.Scheme)
	}

	feePayerStr := requirements.Extra["feePayer"]
	if feePayerStr == "" {
		return "", fmt.Errorf("solanapay: requirements.extra.feePayer is required for the gasless flow")
	}

	mint, err := solana.PublicKeyFromBase58(requirements.Asset)
	if err != nil {
		return "", fmt.Errorf("solanapay: invalid asset mint: %w", err)
	}
	recipient, err := solana.PublicKeyFromBase58(requirements.PayTo)
	if err != nil {
		return "", fmt.Errorf("solanapay: invalid payTo address: %w", err)
	}
	feePayer, err := solana.PublicKeyFromBase58(feePayerStr)
	if err != nil {
		return "", fmt.Errorf("solanapay: invalid feePayer address: %w", err)
	}
	amount, err := strconv.ParseUint(requirements.MaxAmountRequired, 10, 64)
	if err != nil {
		return "", fmt.Errorf("solanapay: invalid maxAmountRequired: %w", err)
	}

	sourceATA, err := solanakeys.EnsureAssociatedTokenAccount(ctx, b.rpcClient, b.owner, mint)
	if err != nil {
		if isInsufficientFundsSOLError(err) {
			return "", fmt.Errorf("solanapay: owner wallet has insufficient SOL to create its token account: %w", err)
		}
		return "", fmt.Errorf("solanapay: ensure source ATA: %w", err)
	}
	destATA, _, err := solana.FindAssociatedTokenAddress(recipient, mint)
	if err != nil {
		return "", fmt.Errorf("solanapay: derive destination ATA: %w", err)
	}

	latestBlockhash, err := b.rpcClient.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return "", fmt.Errorf("solanapay: get latest blockhash: %w", err)
	}

	decimals := assetDecimals(requirements)

	instructions := []solana.Instruction{
		computebudget.NewSetComputeUnitLimitInstruction(b.cfg.ComputeUnitLimit).Build(),
		computebudget.NewSetComputeUnitPriceInstruction(b.cfg.ComputeUnitPriceMicroLamports).Build(),
		token.NewTransferCheckedInstruction(
			amount,
			decimals,
			sourceATA,
			mint,
			destATA,
			b.owner.PublicKey(),
			[]solana.PublicKey{},
		).Build(),
	}

	tx, err := solana.NewTransaction(
		instructions,
		latestBlockhash.Value.Blockhash,
		solana.TransactionPayer(feePayer),
	)
	if err != nil {
		return "", fmt.Errorf("solanapay: build transaction: %w", err)
	}

	// Sign only with the owner key. The facilitator (fee payer) has no
	// signature yet — it co-signs and submits after verification.
	ownerPub := b.owner.PublicKey()
	if _, err := tx.PartialSign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(ownerPub) {
			return &b.owner
		}
		return nil
	}); err != nil {
		return "", fmt.Errorf("solanapay: partial sign: %w", err)
	}

	txBytes, err := tx.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("solanapay: serialize transaction: %w", err)
	}

	payload := x402.PaymentPayload{
		X402Version: x402Version,
		Scheme:      "exact",
		Network:     requirements.Network,
		Payload:     x402.SchemePayload{Transaction: base64.StdEncoding.EncodeToString(txBytes)},
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("solanapay: marshal payment payload: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// assetDecimals returns the token decimals to use for TransferChecked.
// USDC is 6 decimals on every network this gateway targets; requirements
// carry no decimals field of their own (matching the upstream x402 wire
// format), so this is a fixed constant rather than a lookup.
func assetDecimals(_ x402.PaymentRequirements) uint8 {
	return 6
}
