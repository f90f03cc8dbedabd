// Package ragclient is the client SDK for the paywalled retrieval
// gateway: it issues index/search/chunk-range requests, attaches a
// freshly minted Authorization header when a wallet is configured, and,
// when a configured payer is present, transparently answers a single 402
// challenge by building and retrying with an X-PAYMENT header.
package ragclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/x402rag/gateway/internal/auth"
	"github.com/x402rag/gateway/pkg/x402"
)

// PaymentSigner builds a base64 X-PAYMENT header satisfying one of the
// requirements in a 402 challenge. *solanapay.Builder implements this.
type PaymentSigner interface {
	BuildFromChallenge(ctx context.Context, challenge x402.ChallengeResponse) (header string, amountBaseUnits string, payTo string, err error)
}

// Config configures a Client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Payer   PaymentSigner     // optional; nil disables automatic 402 handling
	Wallet  solana.PrivateKey // optional; nil disables the Authorization header
}

// Client talks to a retrieval gateway's HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	payer      PaymentSigner
	wallet     solana.PrivateKey
}

// New constructs a Client.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		payer:  cfg.Payer,
		wallet: cfg.Wallet,
	}
}

func (c *Client) request(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	data, err := c.do(ctx, method, path, body, "")
	if err != nil {
		return err
	}
	if data == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

// do performs one request, and — if the server answers with 402 and a
// payer is configured — builds a payment from the challenge and retries
// exactly once with the X-PAYMENT header attached. A second 402 on the
// retry is surfaced as a PaymentError rather than retried again.
func (c *Client) do(ctx context.Context, method, path string, body interface{}, xPayment string) ([]byte, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("ragclient: marshal request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("ragclient: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if xPayment != "" {
		req.Header.Set("X-PAYMENT", xPayment)
	}
	if len(c.wallet) > 0 {
		header, err := auth.BuildAuthorizationHeader(c.wallet, path)
		if err != nil {
			return nil, fmt.Errorf("ragclient: build authorization header: %w", err)
		}
		req.Header.Set("Authorization", header)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, &TimeoutError{}
		}
		return nil, &ConnectionError{Reason: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ConnectionError{Reason: err.Error()}
	}

	if resp.StatusCode == http.StatusPaymentRequired {
		if xPayment != "" {
			return nil, &PaymentError{Reason: "payment rejected on retry"}
		}
		if c.payer == nil {
			return nil, &PaymentError{Reason: "no payment signer configured"}
		}

		var challenge x402.ChallengeResponse
		if err := json.Unmarshal(respBody, &challenge); err != nil {
			return nil, &PaymentError{Reason: fmt.Sprintf("invalid 402 challenge body: %v", err)}
		}

		header, _, _, err := c.payer.BuildFromChallenge(ctx, challenge)
		if err != nil {
			return nil, &PaymentError{Reason: err.Error()}
		}

		return c.do(ctx, method, path, body, header)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := extractDetail(respBody)
		return nil, &HTTPError{StatusCode: resp.StatusCode, Detail: detail}
	}

	return respBody, nil
}

func extractDetail(body []byte) string {
	var withDetail struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(body, &withDetail); err == nil {
		if withDetail.Detail != "" {
			return withDetail.Detail
		}
		if withDetail.Error != "" {
			return withDetail.Error
		}
	}
	return "unknown error"
}

// IndexDocs indexes file-system documents by path.
func (c *Client) IndexDocs(ctx context.Context, documents []DocumentToIndex) (IndexResult, error) {
	var result IndexResult
	err := c.request(ctx, http.MethodPost, "/docs/index", indexDocsRequest{Documents: documents}, &result)
	return result, err
}

// IndexWebPages indexes web pages by URL.
func (c *Client) IndexWebPages(ctx context.Context, pages []WebPageToIndex) (IndexResult, error) {
	var result IndexResult
	err := c.request(ctx, http.MethodPost, "/docs/index/web", indexWebPagesRequest{Pages: pages}, &result)
	return result, err
}

// Search performs a similarity search, paying for any unpaid chunks
// automatically if a payer is configured.
func (c *Client) Search(ctx context.Context, query string, k int, filters map[string]string) (SearchResult, error) {
	if k <= 0 {
		k = 5
	}
	var result SearchResult
	err := c.request(ctx, http.MethodPost, "/docs/search", searchRequest{Query: query, K: k, Filters: filters}, &result)
	return result, err
}

// GetChunkRange fetches chunks [startChunk, endChunk] of a document.
// Pass endChunk < 0 to fetch just startChunk.
func (c *Client) GetChunkRange(ctx context.Context, docID string, startChunk, endChunk int) (ChunkRangeResult, error) {
	req := chunkRangeRequest{DocID: docID, StartChunk: startChunk}
	if endChunk >= 0 {
		req.EndChunk = &endChunk
	}
	var result ChunkRangeResult
	err := c.request(ctx, http.MethodPost, "/docs/chunks", req, &result)
	return result, err
}
