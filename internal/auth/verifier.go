// Package auth verifies the caller's Solana wallet signature bundled in
// the Authorization header of a retrieval request.
package auth

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
)

// canonPrefix identifies the signed message format version.
const canonPrefix = "solana-auth-v1"

// Identity is the caller identity recovered from a verified Authorization
// header: the wallet address that signed the request.
type Identity struct {
	Wallet string
}

// wirePayload is the base64url-decoded JSON body of the Authorization header.
type wirePayload struct {
	Address string `json:"address"`
	Msg     authMessage `json:"msg"`
	Sig     string `json:"sig"`
}

type authMessage struct {
	V         int    `json:"v"`
	URI       string `json:"uri"`
	IssuedAt  string `json:"issuedAt"`
}

// canonicalString renders the message exactly as the client signed it.
func (m authMessage) canonicalString() string {
	return fmt.Sprintf("%s\nversion: %d\nuri: %s\nissued-at: %s", canonPrefix, m.V, m.URI, m.IssuedAt)
}

// Verifier validates bundled Solana wallet signatures against a canonical
// message containing the request URI and an issuance timestamp.
type Verifier struct {
	MaxTTL      time.Duration
	ClockSkew   time.Duration
}

// NewVerifier constructs a Verifier with the given TTL and clock skew
// tolerance.
func NewVerifier(maxTTL, clockSkew time.Duration) *Verifier {
	return &Verifier{MaxTTL: maxTTL, ClockSkew: clockSkew}
}

// VerifyRequest extracts and verifies the Authorization header of r against
// the request's own URI, returning the recovered wallet identity.
func (v *Verifier) VerifyRequest(r *http.Request) (Identity, error) {
	header := r.Header.Get("Authorization")
	return v.Verify(header, r.URL.RequestURI())
}

// Verify checks a raw "Solana <base64url-json>" Authorization header value
// against the expected request URI.
func (v *Verifier) Verify(header, requestURI string) (Identity, error) {
	const prefix = "Solana "
	if !strings.HasPrefix(header, prefix) {
		return Identity{}, fmt.Errorf("missing or malformed Authorization header")
	}
	encoded := strings.TrimPrefix(header, prefix)

	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		// tolerate standard padding too
		raw, err = base64.URLEncoding.DecodeString(encoded)
		if err != nil {
			return Identity{}, fmt.Errorf("invalid authorization payload encoding: %w", err)
		}
	}

	var payload wirePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Identity{}, fmt.Errorf("invalid authorization payload json: %w", err)
	}

	if payload.Msg.URI != requestURI {
		return Identity{}, fmt.Errorf("signed uri %q does not match request uri %q", payload.Msg.URI, requestURI)
	}

	issued, err := time.Parse(time.RFC3339, payload.Msg.IssuedAt)
	if err != nil {
		return Identity{}, fmt.Errorf("invalid issued-at timestamp: %w", err)
	}

	now := time.Now().UTC()
	if issued.Sub(now) > v.ClockSkew {
		return Identity{}, fmt.Errorf("issued-at is too far in the future")
	}
	if now.Sub(issued) > v.MaxTTL+v.ClockSkew {
		return Identity{}, fmt.Errorf("authorization has expired")
	}

	pubKey, err := solana.PublicKeyFromBase58(payload.Address)
	if err != nil {
		return Identity{}, fmt.Errorf("invalid wallet address: %w", err)
	}

	sigBytes, err := base64.RawURLEncoding.DecodeString(payload.Sig)
	if err != nil {
		// tolerate standard padding too
		sigBytes, err = base64.URLEncoding.DecodeString(payload.Sig)
		if err != nil {
			return Identity{}, fmt.Errorf("invalid signature encoding: %w", err)
		}
	}
	signature := solana.SignatureFromBytes(sigBytes)
	if !signature.Verify(pubKey, []byte(payload.Msg.canonicalString())) {
		return Identity{}, fmt.Errorf("signature verification failed")
	}

	return Identity{Wallet: payload.Address}, nil
}
