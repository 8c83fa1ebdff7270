package suiclient

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
)

// DefaultPublishEventType is the Move event emitted when a package is
// published on chain.
const DefaultPublishEventType = "0x2::package::Publish"

// SubscribeEvents opens a websocket subscription for the given Move event
// type and invokes handle for every received event. It blocks until the
// context is cancelled or the connection fails; reconnect policy belongs to
// the caller.
func (c *Client) SubscribeEvents(ctx context.Context, network, eventType string, handle func(PublishEvent)) error {
	url, ok := c.ws[network]
	if !ok || url == "" {
		return fmt.Errorf("suiclient: no websocket endpoint configured for network %q", network)
	}
	if eventType == "" {
		eventType = DefaultPublishEventType
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("suiclient: dial %s: %w", url, err)
	}
	defer conn.Close()

	sub := rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "suix_subscribeEvent",
		Params:  []any{map[string]any{"MoveEventType": eventType}},
	}
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("suiclient: subscribe: %w", err)
	}

	// Unblock ReadJSON when the context is cancelled.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		var msg struct {
			Result json.RawMessage `json:"result"`
			Error  *rpcError       `json:"error"`
			Method string          `json:"method"`
			Params struct {
				Result PublishEvent `json:"result"`
			} `json:"params"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("suiclient: event stream: %w", err)
		}
		switch {
		case msg.Error != nil:
			return fmt.Errorf("suiclient: event stream: %w", msg.Error)
		case msg.Method == "suix_subscribeEvent":
			handle(msg.Params.Result)
		default:
			// Subscription confirmation; nothing to do.
		}
	}
}
