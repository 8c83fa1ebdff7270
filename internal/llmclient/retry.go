package llmclient

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"
)

// Retry wraps a Client with a per-call timeout and a single bounded retry
// when the reply is not valid JSON. Upstream transport failures and
// PermanentError are propagated immediately; only a malformed reply earns
// the one extra attempt.
type Retry struct {
	Inner   Client
	Timeout time.Duration
}

func (r *Retry) Name() string { return r.Inner.Name() }
func (r *Retry) Close() error { return r.Inner.Close() }

func (r *Retry) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		raw, err := r.generateOnce(ctx, prompt, input)
		if err == nil {
			if json.Valid(raw) {
				return raw, nil
			}
			err = ErrInvalidJSON
		}
		var perm *PermanentError
		if errors.As(err, &perm) {
			return nil, err
		}
		if !errors.Is(err, ErrInvalidJSON) {
			return nil, err
		}
		lastErr = err
		if attempt == 0 {
			log.Printf("llm %s returned malformed JSON, retrying once", r.Inner.Name())
		}
	}
	return nil, lastErr
}

func (r *Retry) generateOnce(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	return r.Inner.GenerateJSON(ctx, prompt, input)
}
