package social

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	stateKeyPrefix      = "social:state:"
	completionKeyPrefix = "social:done:"

	// StateTTL bounds how long an issued nonce stays valid. Abandoned flows
	// simply expire; no cleanup job is needed.
	StateTTL = 10 * time.Minute

	// CompletionTTL bounds how long the opener can poll for a result.
	CompletionTTL = 5 * time.Minute
)

// StateRecord is what a nonce stands for while the provider round-trip is in
// flight: who started the flow, for which platform, and the PKCE verifier.
type StateRecord struct {
	CreatorID uint   `json:"creator_id"`
	Platform  string `json:"platform"`
	Verifier  string `json:"verifier"`
}

// CompletionRecord is the single signaling channel between the callback page
// and the window that opened the popup. It is keyed by the state nonce and
// polled through the connect-status endpoint.
type CompletionRecord struct {
	Status    string `json:"status"` // "success" or "error"
	AccountID string `json:"account_id,omitempty"`
	Platform  string `json:"platform,omitempty"`
	Step      string `json:"step,omitempty"`
	Message   string `json:"message,omitempty"`
}

// StateBroker is the slice of the state store the connect flow needs.
type StateBroker interface {
	Issue(ctx context.Context, nonce string, rec StateRecord) error
	Consume(ctx context.Context, nonce string) (*StateRecord, error)
}

// StateStore keeps nonces and completion records in Redis.
type StateStore struct {
	client *redis.Client
}

func NewStateStore(client *redis.Client) *StateStore {
	return &StateStore{client: client}
}

// Issue persists a fresh nonce with its record.
func (s *StateStore) Issue(ctx context.Context, nonce string, rec StateRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, stateKeyPrefix+nonce, payload, StateTTL).Err()
}

// Consume atomically fetches and deletes a nonce so it can never be replayed.
func (s *StateStore) Consume(ctx context.Context, nonce string) (*StateRecord, error) {
	payload, err := s.client.GetDel(ctx, stateKeyPrefix+nonce).Result()
	if errors.Is(err, redis.Nil) {
		return nil, &StateError{Reason: "unknown, expired or already used nonce"}
	}
	if err != nil {
		return nil, err
	}
	var rec StateRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return nil, &StateError{Reason: "corrupt state record"}
	}
	return &rec, nil
}

// Complete publishes the outcome of a callback for the opener to pick up.
func (s *StateStore) Complete(ctx context.Context, nonce string, rec CompletionRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, completionKeyPrefix+nonce, payload, CompletionTTL).Err()
}

// GetCompletion returns the published outcome, or nil while still pending.
func (s *StateStore) GetCompletion(ctx context.Context, nonce string) (*CompletionRecord, error) {
	payload, err := s.client.Get(ctx, completionKeyPrefix+nonce).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec CompletionRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
