// Package solana holds Solana keypair and account-bootstrap helpers
// shared by the payment-building client code (pkg/x402/solanapay,
// pkg/ragclient) — the caller's own wallet, not a server fee-payer pool.
package solana

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/rpc"
)

// ParsePrivateKey parses a Solana private key from either base58 or JSON array format.
// Supported formats:
//   - Base58: "5Kd7..." (standard format from solana-keygen)
//   - JSON array: "[1,2,3,...,64]" (64 bytes, Phantom wallet export format)
func ParsePrivateKey(keyStr string) (solana.PrivateKey, error) {
	if keyStr == "" {
		return solana.PrivateKey{}, fmt.Errorf("private key string is empty")
	}

	// Trim whitespace
	keyStr = strings.TrimSpace(keyStr)

	// Try base58 format first (most common)
	if !strings.HasPrefix(keyStr, "[") {
		privateKey, err := solana.PrivateKeyFromBase58(keyStr)
		if err != nil {
			return solana.PrivateKey{}, fmt.Errorf("invalid base58 private key: %w", err)
		}
		return privateKey, nil
	}

	// Fall back to JSON array format
	return parsePrivateKeyArray(keyStr)
}

// parsePrivateKeyArray parses a private key from JSON array format: [1,2,3,...,64]
func parsePrivateKeyArray(keyStr string) (solana.PrivateKey, error) {
	// Validate JSON array format
	if !strings.HasPrefix(keyStr, "[") || !strings.HasSuffix(keyStr, "]") {
		return solana.PrivateKey{}, fmt.Errorf("private key array must be in JSON format: [1,2,3,...]")
	}

	// Remove brackets and split by comma
	arrayContent := keyStr[1 : len(keyStr)-1]
	parts := strings.Split(arrayContent, ",")

	if len(parts) != 64 {
		return solana.PrivateKey{}, fmt.Errorf("private key must be a 64-byte array, got %d bytes", len(parts))
	}

	// Convert string numbers to bytes
	var keyBytes [64]byte
	for i, part := range parts {
		part = strings.TrimSpace(part)
		val, err := strconv.Atoi(part)
		if err != nil {
			return solana.PrivateKey{}, fmt.Errorf("invalid byte value at position %d: %s (%w)", i, part, err)
		}
		if val < 0 || val > 255 {
			return solana.PrivateKey{}, fmt.Errorf("byte value at position %d out of range (0-255): %d", i, val)
		}
		keyBytes[i] = byte(val)
	}

	privateKey := solana.PrivateKey(keyBytes[:])
	return privateKey, nil
}

// isAccountNotFoundError reports whether err is the RPC's way of saying an
// account doesn't exist yet, as opposed to a genuine RPC failure.
func isAccountNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "account not found") ||
		strings.Contains(msg, "could not find account") ||
		strings.Contains(msg, "not found")
}

// EnsureAssociatedTokenAccount returns the owner's associated token
// account for mint, creating it first if it doesn't yet exist. The
// create transaction is idempotent and paid for by the owner itself —
// this runs as a prerequisite step before a payment transaction is
// built, not as part of it, so a concurrent caller racing to create
// the same ATA twice is harmless.
func EnsureAssociatedTokenAccount(ctx context.Context, rpcClient *rpc.Client, owner solana.PrivateKey, mint solana.PublicKey) (solana.PublicKey, error) {
	ownerPub := owner.PublicKey()
	ata, _, err := solana.FindAssociatedTokenAddress(ownerPub, mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive ATA: %w", err)
	}

	info, err := rpcClient.GetAccountInfo(ctx, ata)
	if err == nil && info != nil && info.Value != nil {
		return ata, nil
	}
	if err != nil && !isAccountNotFoundError(err) {
		return solana.PublicKey{}, fmt.Errorf("get ATA account info: %w", err)
	}

	latestBlockhash, err := rpcClient.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("get latest blockhash: %w", err)
	}

	createATAInstruction := associatedtokenaccount.NewCreateIdempotentInstruction(
		ownerPub,
		ownerPub,
		mint,
	).Build()

	tx, err := solana.NewTransaction(
		[]solana.Instruction{createATAInstruction},
		latestBlockhash.Value.Blockhash,
		solana.TransactionPayer(ownerPub),
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("build ATA create transaction: %w", err)
	}

	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(ownerPub) {
			return &owner
		}
		return nil
	}); err != nil {
		return solana.PublicKey{}, fmt.Errorf("sign ATA create transaction: %w", err)
	}

	if _, err := rpcClient.SendTransaction(ctx, tx); err != nil {
		return solana.PublicKey{}, fmt.Errorf("send ATA create transaction: %w", err)
	}

	return ata, nil
}
