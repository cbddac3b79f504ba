// Package odoo is a minimal Odoo JSON-RPC client.
package odoo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Client talks to one Odoo database with one set of credentials
type Client struct {
	BaseURL    string
	DB         string
	Username   string
	Password   string
	HTTPClient *http.Client
	Logger     *zap.Logger

	uid    int64
	nextID int64
}

type rpcRequest struct {
	JSONRPC string    `json:"jsonrpc"`
	Method  string    `json:"method"`
	Params  rpcParams `json:"params"`
	ID      int64     `json:"id"`
}

type rpcParams struct {
	Service string        `json:"service"`
	Method  string        `json:"method"`
	Args    []interface{} `json:"args"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

// RPCError is an error reported by the Odoo server
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	} `json:"data"`
}

func (e *RPCError) Error() string {
	if e.Data.Message != "" {
		return fmt.Sprintf("odoo: %s: %s", e.Message, e.Data.Message)
	}
	return "odoo: " + e.Message
}

// NewClient creates an Odoo client
func NewClient(baseURL, db, username, password string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		DB:         db,
		Username:   username,
		Password:   password,
		HTTPClient: &http.Client{Timeout: timeout},
		Logger:     logger,
	}
}

func (c *Client) call(ctx context.Context, service, method string, args []interface{}, out interface{}) error {
	payload, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  "call",
		Params:  rpcParams{Service: service, Method: method, Args: args},
		ID:      atomic.AddInt64(&c.nextID, 1),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/jsonrpc", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.Logger.Error("Odoo request failed", zap.String("method", method), zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		c.Logger.Error("Odoo returned non-200",
			zap.Int("status_code", resp.StatusCode),
			zap.String("response", string(body)))
		return fmt.Errorf("odoo: unexpected status %d", resp.StatusCode)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return fmt.Errorf("odoo: decode response: %w", err)
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(rpcResp.Result, out)
}

// Authenticate logs in and caches the user id
func (c *Client) Authenticate(ctx context.Context) (int64, error) {
	var result interface{}
	if err := c.call(ctx, "common", "login", []interface{}{c.DB, c.Username, c.Password}, &result); err != nil {
		return 0, err
	}
	uid, ok := result.(float64)
	if !ok || uid == 0 {
		return 0, fmt.Errorf("odoo: authentication failed for %s", c.Username)
	}
	c.uid = int64(uid)
	c.Logger.Info("Authenticated with Odoo", zap.String("db", c.DB), zap.Int64("uid", c.uid))
	return c.uid, nil
}

func (c *Client) executeKw(ctx context.Context, model, method string, args []interface{}, kwargs map[string]interface{}, out interface{}) error {
	if c.uid == 0 {
		if _, err := c.Authenticate(ctx); err != nil {
			return err
		}
	}
	if kwargs == nil {
		kwargs = map[string]interface{}{}
	}
	return c.call(ctx, "object", "execute_kw",
		[]interface{}{c.DB, c.uid, c.Password, model, method, args, kwargs}, out)
}

// SearchRead returns records of model matching domain
func (c *Client) SearchRead(ctx context.Context, model string, domain []interface{}, fields []string, limit int) ([]map[string]interface{}, error) {
	if domain == nil {
		domain = []interface{}{}
	}
	kwargs := map[string]interface{}{"fields": fields}
	if limit > 0 {
		kwargs["limit"] = limit
	}
	var records []map[string]interface{}
	if err := c.executeKw(ctx, model, "search_read", []interface{}{domain}, kwargs, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Create creates one record and returns its id
func (c *Client) Create(ctx context.Context, model string, values map[string]interface{}) (int64, error) {
	var id int64
	if err := c.executeKw(ctx, model, "create", []interface{}{values}, nil, &id); err != nil {
		return 0, err
	}
	return id, nil
}

// Write updates records by id
func (c *Client) Write(ctx context.Context, model string, ids []int64, values map[string]interface{}) error {
	return c.executeKw(ctx, model, "write", []interface{}{ids, values}, nil, nil)
}
