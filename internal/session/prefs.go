package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/abhisek/wordzipf/internal/mode"
	"github.com/abhisek/wordzipf/internal/store"
)

// Key-value entries owned by the session.
const (
	KeyPreferences = "displayPreferences"
	KeyMode        = "trainingMode"
	KeyAPIKey      = "apiKey"
	KeyVisited     = "hasVisited"
)

// Preferences control what a question shows.
type Preferences struct {
	ShowExamples bool `json:"showExamples"`
	ShowSynonyms bool `json:"showSynonyms"`
}

// DefaultPreferences hides both examples and synonyms.
func DefaultPreferences() Preferences {
	return Preferences{}
}

// LoadPreferences reads the stored preferences, falling back to defaults
// when missing or unreadable.
func LoadPreferences(ctx context.Context, kv store.KV) (Preferences, error) {
	raw, ok, err := kv.Get(ctx, KeyPreferences)
	if err != nil {
		return Preferences{}, fmt.Errorf("load preferences: %w", err)
	}
	p := DefaultPreferences()
	if ok {
		_ = json.Unmarshal([]byte(raw), &p)
	}
	return p, nil
}

// SavePreferences stores p.
func SavePreferences(ctx context.Context, kv store.KV, p Preferences) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	return kv.Set(ctx, KeyPreferences, string(data))
}

// LoadMode returns the last selected mode, or mode.Normal.
func LoadMode(ctx context.Context, kv store.KV) (mode.Mode, error) {
	raw, ok, err := kv.Get(ctx, KeyMode)
	if err != nil {
		return "", fmt.Errorf("load training mode: %w", err)
	}
	if !ok {
		return mode.Normal, nil
	}
	m, err := mode.Parse(raw)
	if err != nil {
		return mode.Normal, nil
	}
	return m, nil
}

// LoadAPIKey returns a key saved by the learner, if any.
func LoadAPIKey(ctx context.Context, kv store.KV) (string, error) {
	raw, _, err := kv.Get(ctx, KeyAPIKey)
	if err != nil {
		return "", fmt.Errorf("load API key: %w", err)
	}
	return raw, nil
}

// SaveAPIKey stores key; an empty key removes it.
func SaveAPIKey(ctx context.Context, kv store.KV, key string) error {
	if key == "" {
		return kv.Delete(ctx, KeyAPIKey)
	}
	return kv.Set(ctx, KeyAPIKey, key)
}

// HasVisited reports whether a round was ever played.
func HasVisited(ctx context.Context, kv store.KV) (bool, error) {
	raw, ok, err := kv.Get(ctx, KeyVisited)
	if err != nil {
		return false, fmt.Errorf("load visited flag: %w", err)
	}
	return ok && raw == "true", nil
}

func markVisited(ctx context.Context, kv store.KV) error {
	return kv.Set(ctx, KeyVisited, "true")
}
