// Package recent keeps the bounded list of recently presented words.
package recent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/samber/lo"

	"github.com/abhisek/wordzipf/internal/store"
)

// Key is the key-value entry the log is stored under.
const Key = "recentWords"

// MaxWords bounds the log.
const MaxWords = 35

// Log is a most-recent-first, de-duplicated list of words shared by all
// modes. Every change is written through to the key-value store.
type Log struct {
	mu    sync.Mutex
	kv    store.KV
	words []string
}

// Load restores the log. An unreadable stored value starts an empty log.
func Load(ctx context.Context, kv store.KV) (*Log, error) {
	l := &Log{kv: kv}
	raw, ok, err := kv.Get(ctx, Key)
	if err != nil {
		return nil, fmt.Errorf("load recent words: %w", err)
	}
	if !ok {
		return l, nil
	}
	var words []string
	if err := json.Unmarshal([]byte(raw), &words); err != nil {
		return l, nil
	}
	l.words = normalize(words)
	return l, nil
}

// Words returns a copy of the log, most recent first.
func (l *Log) Words() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.words...)
}

// Contains reports whether word is in the log.
func (l *Log) Contains(word string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return lo.Contains(l.words, word)
}

// Push moves word to the front of the log, dropping any earlier copy and
// truncating to MaxWords, then persists the result.
func (l *Log) Push(ctx context.Context, word string) error {
	word = strings.TrimSpace(word)
	if word == "" {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	next := normalize(append([]string{word}, l.words...))
	if err := l.save(ctx, next); err != nil {
		return err
	}
	l.words = next
	return nil
}

// Clear empties the log.
func (l *Log) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.save(ctx, []string{}); err != nil {
		return err
	}
	l.words = nil
	return nil
}

func (l *Log) save(ctx context.Context, words []string) error {
	data, err := json.Marshal(words)
	if err != nil {
		return fmt.Errorf("encode recent words: %w", err)
	}
	if err := l.kv.Set(ctx, Key, string(data)); err != nil {
		return fmt.Errorf("save recent words: %w", err)
	}
	return nil
}

// normalize de-duplicates keeping the first occurrence and truncates.
func normalize(words []string) []string {
	words = lo.Uniq(lo.Without(words, ""))
	if len(words) > MaxWords {
		words = words[:MaxWords]
	}
	return words
}
