// Package httpapi implements bank.Ops against the demo bank's HTTP
// collaborator services (read-query, write-ops, and QR). A 403 from any of
// them is translated into the typed bank.VerificationError; a "rejected"
// result body becomes a bank.RejectedError.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/voxteller/voxteller/pkg/collab/bank"
)

const defaultTimeout = 10 * time.Second

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithHTTPClient overrides the default *http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// Client implements bank.Ops over the demo services' HTTP contracts.
type Client struct {
	readURL    string
	writeURL   string
	qrURL      string
	httpClient *http.Client
}

// New creates a Client for the given collaborator base URLs
// (e.g. "http://localhost:8106"). All three must be non-empty.
func New(readURL, writeURL, qrURL string, opts ...Option) (*Client, error) {
	if readURL == "" || writeURL == "" || qrURL == "" {
		return nil, fmt.Errorf("bank httpapi: all collaborator URLs must be set")
	}
	c := &Client{
		readURL:    readURL,
		writeURL:   writeURL,
		qrURL:      qrURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// ---- wire types ----

type queryRequest struct {
	UserText  string `json:"user_text"`
	AccountID string `json:"account_id"`
	Verified  bool   `json:"verified"`
}

type queryResponse struct {
	Type   string             `json:"type"`
	Items  []bank.Transaction `json:"items"`
	Amount float64            `json:"amount"`
}

type transferRequest struct {
	FromAcct string         `json:"from_acct"`
	ToAcct   string         `json:"to_acct"`
	Amount   float64        `json:"amount"`
	Verified bool           `json:"verified"`
	Context  map[string]any `json:"context"`
}

type transferResponse struct {
	Status      string `json:"status"`
	Reason      string `json:"reason"`
	Transaction *struct {
		ID           int     `json:"id"`
		Counterparty string  `json:"counterparty"`
		Amount       float64 `json:"amount"`
	} `json:"transaction"`
}

type createQRRequest struct {
	AccountID string         `json:"account_id"`
	Amount    float64        `json:"amount"`
	Verified  bool           `json:"verified"`
	Context   map[string]any `json:"context"`
}

type createQRResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
	QRCode string `json:"qr_code"`
}

// ---- bank.Ops ----

// ReadQuery implements bank.Ops.
func (c *Client) ReadQuery(ctx context.Context, req bank.ReadRequest) (*bank.ReadResult, error) {
	var resp queryResponse
	err := c.post(ctx, c.readURL+"/query", queryRequest{
		UserText:  req.UserText,
		AccountID: req.AccountID,
		Verified:  req.Verified,
	}, &resp, bank.KindRead)
	if err != nil {
		return nil, err
	}
	return &bank.ReadResult{
		Type:   bank.ReadResultType(resp.Type),
		Amount: resp.Amount,
		Items:  resp.Items,
	}, nil
}

// Transfer implements bank.Ops.
func (c *Client) Transfer(ctx context.Context, req bank.TransferRequest) (*bank.Transfer, error) {
	var resp transferResponse
	err := c.post(ctx, c.writeURL+"/transfer", transferRequest{
		FromAcct: req.FromAccount,
		ToAcct:   req.ToAccount,
		Amount:   req.Amount,
		Verified: req.Verified,
		Context:  map[string]any{},
	}, &resp, bank.KindWrite)
	if err != nil {
		return nil, err
	}
	if resp.Status != "ok" {
		return nil, &bank.RejectedError{Reason: resp.Reason}
	}
	if resp.Transaction == nil {
		return nil, fmt.Errorf("bank httpapi: transfer response missing transaction")
	}
	return &bank.Transfer{
		ID:           resp.Transaction.ID,
		Counterparty: resp.Transaction.Counterparty,
		Amount:       resp.Transaction.Amount,
	}, nil
}

// CreateQR implements bank.Ops.
func (c *Client) CreateQR(ctx context.Context, req bank.QRRequest) (string, error) {
	var resp createQRResponse
	err := c.post(ctx, c.qrURL+"/create", createQRRequest{
		AccountID: req.AccountID,
		Amount:    req.Amount,
		Verified:  req.Verified,
		Context:   map[string]any{},
	}, &resp, bank.KindWrite)
	if err != nil {
		return "", err
	}
	if resp.Status != "ok" {
		return "", &bank.RejectedError{Reason: resp.Reason}
	}
	return resp.QRCode, nil
}

// post sends a JSON body and decodes the JSON response. A 403 status is
// translated into a bank.VerificationError of the given kind.
func (c *Client) post(ctx context.Context, url string, body, out any, kind bank.VerificationKind) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("bank httpapi: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("bank httpapi: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("bank httpapi: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		io.Copy(io.Discard, resp.Body)
		return &bank.VerificationError{Kind: kind}
	}
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("bank httpapi: %s returned status %d", url, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("bank httpapi: decode response: %w", err)
	}
	return nil
}
