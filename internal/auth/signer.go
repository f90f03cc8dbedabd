package auth

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
)

// BuildAuthorizationHeader signs a fresh canonical message for requestURI
// with privateKey's Ed25519 key, stamping it with the current UTC time,
// and returns the "Solana <base64url-json>" Authorization header value
// Verify expects.
func BuildAuthorizationHeader(privateKey solana.PrivateKey, requestURI string) (string, error) {
	msg := authMessage{
		V:        1,
		URI:      requestURI,
		IssuedAt: time.Now().UTC().Format(time.RFC3339),
	}

	sig, err := privateKey.Sign([]byte(msg.canonicalString()))
	if err != nil {
		return "", fmt.Errorf("sign authorization message: %w", err)
	}

	payload := wirePayload{
		Address: privateKey.PublicKey().String(),
		Msg:     msg,
		Sig:     base64.RawURLEncoding.EncodeToString(sig[:]),
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal authorization payload: %w", err)
	}

	return "Solana " + base64.RawURLEncoding.EncodeToString(raw), nil
}
