package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// gatewayTimeout bounds every remote call to the payment provider.
const gatewayTimeout = 30 * time.Second

// GatewayClient wraps the payment provider's initialize and verify
// operations. Pure request/response, no local state.
type GatewayClient interface {
	Initialize(ctx context.Context, req InitializeRequest) (*InitializeResult, error)
	Verify(ctx context.Context, txRef string) (*VerifyResult, error)
}

// InitializeRequest is the payload for creating a hosted checkout session.
type InitializeRequest struct {
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	TxRef       string `json:"tx_ref"`
	CallbackURL string `json:"callback_url"`
	ReturnURL   string `json:"return_url"`

	Customization struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	} `json:"customization"`
}

// InitializeResult is the successful outcome of Initialize.
type InitializeResult struct {
	CheckoutURL string
}

// VerifyResult is the gateway's view of a transaction. The gateway is the
// source of truth; Verify never mutates it and is safe to repeat.
type VerifyResult struct {
	Status        string // "success" or a failure state
	PaymentMethod string
	Raw           json.RawMessage // full provider payload, kept for diagnostics
}

// Success reports whether the gateway settled the transaction.
func (v *VerifyResult) Success() bool {
	return v.Status == "success"
}

// chapaEnvelope is the common response wrapper of the Chapa API.
type chapaEnvelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// ChapaClient implements GatewayClient against the Chapa REST API.
type ChapaClient struct {
	baseURL   string
	secretKey string
	client    *http.Client
	logger    *zap.Logger
}

// NewChapaClient creates a gateway client. Credentials are injected rather
// than read from ambient configuration.
func NewChapaClient(baseURL, secretKey string, logger *zap.Logger) *ChapaClient {
	return &ChapaClient{
		baseURL:   baseURL,
		secretKey: secretKey,
		client:    &http.Client{Timeout: gatewayTimeout},
		logger:    logger,
	}
}

// Initialize creates a hosted checkout session for the given transaction.
func (c *ChapaClient) Initialize(ctx context.Context, req InitializeRequest) (*InitializeResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, NewInternalError("failed to encode initialize request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/transaction/initialize", bytes.NewReader(body))
	if err != nil {
		return nil, NewInternalError("failed to build initialize request", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)
	httpReq.Header.Set("Content-Type", "application/json")

	env, raw, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}

	var data struct {
		CheckoutURL string `json:"checkout_url"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.CheckoutURL == "" {
		return nil, NewGatewayError("gateway returned no checkout URL", json.RawMessage(raw), err)
	}

	c.logger.Debug("gateway checkout session created", zap.String("txRef", req.TxRef))
	return &InitializeResult{CheckoutURL: data.CheckoutURL}, nil
}

// Verify queries the gateway for the settled state of a transaction.
func (c *ChapaClient) Verify(ctx context.Context, txRef string) (*VerifyResult, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/transaction/verify/"+txRef, nil)
	if err != nil {
		return nil, NewInternalError("failed to build verify request", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)

	env, raw, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}

	var data struct {
		Status        string `json:"status"`
		PaymentMethod string `json:"payment_method"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, NewGatewayError("gateway returned malformed verification data", json.RawMessage(raw), err)
	}

	return &VerifyResult{
		Status:        data.Status,
		PaymentMethod: data.PaymentMethod,
		Raw:           json.RawMessage(raw),
	}, nil
}

// do executes the request and unwraps the response envelope. Any non-2xx
// status or an envelope whose status is not "success" is a gateway error
// carrying the raw body for operator debugging.
func (c *ChapaClient) do(req *http.Request) (*chapaEnvelope, []byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, NewGatewayError("gateway request failed", nil, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, NewGatewayError("failed to read gateway response", nil, err)
	}

	var env chapaEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, nil, NewGatewayError(
			fmt.Sprintf("gateway returned malformed response (HTTP %d)", resp.StatusCode),
			string(raw), err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || env.Status != "success" {
		return nil, nil, NewGatewayError(
			fmt.Sprintf("gateway rejected request (HTTP %d)", resp.StatusCode),
			json.RawMessage(raw), nil)
	}

	return &env, raw, nil
}
