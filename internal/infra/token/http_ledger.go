// File: internal/infra/token/http_ledger.go
package token

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"planvault/internal/domain/ports/adapter"
	"planvault/internal/infra/metrics"
)

var _ adapter.TokenLedger = (*HTTPLedger)(nil)

// HTTPLedger talks to the external token service over JSON/HTTP. The service
// owns all transfer semantics (balance checks, non-positive amounts); we only
// relay calls and surface its rejections.
type HTTPLedger struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPLedger(baseURL, apiKey string, timeout time.Duration) *HTTPLedger {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPLedger{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type moveRequest struct {
	Token  string `json:"token"`
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
	Amount int64  `json:"amount"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (l *HTTPLedger) Transfer(ctx context.Context, token, from, to string, amount int64) error {
	return l.post(ctx, "transfer", moveRequest{Token: token, From: from, To: to, Amount: amount})
}

func (l *HTTPLedger) Mint(ctx context.Context, token, to string, amount int64) error {
	return l.post(ctx, "mint", moveRequest{Token: token, To: to, Amount: amount})
}

func (l *HTTPLedger) Burn(ctx context.Context, token, from string, amount int64) error {
	return l.post(ctx, "burn", moveRequest{Token: token, From: from, Amount: amount})
}

func (l *HTTPLedger) Balance(ctx context.Context, token, addr string) (int64, error) {
	start := time.Now()
	url := fmt.Sprintf("%s/v1/balances/%s/%s", l.baseURL, token, addr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	l.decorate(req)

	resp, err := l.client.Do(req)
	metrics.ObserveTokenCall("balance", int(time.Since(start).Milliseconds()), err == nil)
	if err != nil {
		return 0, fmt.Errorf("token service balance: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("token service balance read: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, remoteError(resp.StatusCode, body)
	}
	var out struct {
		Amount int64 `json:"amount"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return 0, fmt.Errorf("token service balance decode: %w", err)
	}
	return out.Amount, nil
}

func (l *HTTPLedger) post(ctx context.Context, op string, payload moveRequest) error {
	start := time.Now()
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/v1/%s", l.baseURL, op)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	l.decorate(req)

	resp, err := l.client.Do(req)
	ok := err == nil
	defer func() { metrics.ObserveTokenCall(op, int(time.Since(start).Milliseconds()), ok) }()
	if err != nil {
		return fmt.Errorf("token service %s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		ok = false
		body, _ := io.ReadAll(resp.Body)
		return remoteError(resp.StatusCode, body)
	}
	return nil
}

func (l *HTTPLedger) decorate(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if l.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+l.apiKey)
	}
}

func remoteError(status int, body []byte) error {
	var er errorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Error != "" {
		return fmt.Errorf("token service rejected (%d): %s", status, er.Error)
	}
	return fmt.Errorf("token service rejected (%d)", status)
}
