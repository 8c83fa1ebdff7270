package suiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks JSON-RPC to one fullnode per network name. It implements the
// chain-query surface the pipeline needs: normalized modules, disassembled
// package content, struct layouts, and the publish-event stream.
type Client struct {
	http *http.Client
	rpc  map[string]string
	ws   map[string]string
}

// New builds a client from network-name → endpoint maps. The ws map may be
// empty when event subscription is not needed (the API process).
func New(rpc, ws map[string]string) *Client {
	return &Client{
		http: &http.Client{Timeout: 30 * time.Second},
		rpc:  rpc,
		ws:   ws,
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

func (c *Client) endpoint(network string) (string, error) {
	url, ok := c.rpc[network]
	if !ok || url == "" {
		return "", fmt.Errorf("suiclient: no RPC endpoint configured for network %q", network)
	}
	return url, nil
}

func (c *Client) call(ctx context.Context, network, method string, params []any, out any) error {
	url, err := c.endpoint(network)
	if err != nil {
		return err
	}
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("suiclient: %s: %w", method, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("suiclient: %s: read body: %w", method, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("suiclient: %s: unexpected status %d", method, resp.StatusCode)
	}
	var rpcResp rpcResponse
	if err := json.Unmarshal(raw, &rpcResp); err != nil {
		return fmt.Errorf("suiclient: %s: decode response: %w", method, err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("suiclient: %s: %w", method, rpcResp.Error)
	}
	if out != nil {
		if err := json.Unmarshal(rpcResp.Result, out); err != nil {
			return fmt.Errorf("suiclient: %s: decode result: %w", method, err)
		}
	}
	return nil
}

// NormalizedModules fetches the normalized module map for a package. Each
// module is returned as raw JSON so the extractor can decode modules
// one by one and degrade per module instead of failing the whole package.
func (c *Client) NormalizedModules(ctx context.Context, network, packageID string) (map[string]json.RawMessage, error) {
	var out map[string]json.RawMessage
	if err := c.call(ctx, network, "sui_getNormalizedMoveModulesByPackage", []any{packageID}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Disassembly fetches the package object and returns the per-module
// disassembled bytecode listings.
func (c *Client) Disassembly(ctx context.Context, network, packageID string) (map[string]string, error) {
	var out struct {
		Data struct {
			Content struct {
				DataType     string                     `json:"dataType"`
				Disassembled map[string]json.RawMessage `json:"disassembled"`
			} `json:"content"`
		} `json:"data"`
	}
	params := []any{packageID, map[string]any{"showContent": true, "showOwner": true}}
	if err := c.call(ctx, network, "sui_getObject", params, &out); err != nil {
		return nil, err
	}
	if out.Data.Content.DataType != "package" {
		return nil, fmt.Errorf("suiclient: object %s is not a package (dataType=%q)", packageID, out.Data.Content.DataType)
	}
	listing := make(map[string]string, len(out.Data.Content.Disassembled))
	for name, raw := range out.Data.Content.Disassembled {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			// Some nodes nest the listing; keep the raw JSON as a fallback.
			text = string(raw)
		}
		listing[name] = text
	}
	return listing, nil
}

// NormalizedStruct fetches the field layout of one struct.
func (c *Client) NormalizedStruct(ctx context.Context, network, packageID, module, name string) (NormalizedStruct, error) {
	var out NormalizedStruct
	err := c.call(ctx, network, "sui_getNormalizedMoveStruct", []any{packageID, module, name}, &out)
	return out, err
}
