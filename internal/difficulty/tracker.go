// Package difficulty tracks the per-mode Zipf level.
//
// Higher Zipf means more common, easier words. A correct answer lowers the
// level so the next word is rarer; a wrong answer raises it.
package difficulty

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"sync"

	"github.com/abhisek/wordzipf/internal/mode"
	"github.com/abhisek/wordzipf/internal/store"
)

const (
	// DefaultLevel is the level of a mode that was never adjusted.
	DefaultLevel = 5.0

	// Step is the size of one adjustment.
	Step = 0.05

	// MinLevel and MaxLevel bound the level; frequency lists carry almost
	// nothing outside this band.
	MinLevel = 1.0
	MaxLevel = 8.0
)

const keyPrefix = "zipfLevel."

// Key returns the key-value entry a mode's level is stored under.
func Key(m mode.Mode) string {
	return keyPrefix + string(m)
}

// Tracker holds one level per mode and persists every change.
type Tracker struct {
	mu     sync.Mutex
	kv     store.KV
	levels map[mode.Mode]float64
}

// Load restores the stored levels for every mode. Missing or unreadable
// values fall back to DefaultLevel.
func Load(ctx context.Context, kv store.KV) (*Tracker, error) {
	t := &Tracker{kv: kv, levels: make(map[mode.Mode]float64, len(mode.All))}
	for _, m := range mode.All {
		raw, ok, err := kv.Get(ctx, Key(m))
		if err != nil {
			return nil, fmt.Errorf("load level for %s: %w", m, err)
		}
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		t.levels[m] = v
	}
	return t, nil
}

// Get returns the current level for a mode.
func (t *Tracker) Get(m mode.Mode) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.get(m)
}

func (t *Tracker) get(m mode.Mode) float64 {
	if v, ok := t.levels[m]; ok {
		return v
	}
	return DefaultLevel
}

// Levels returns a copy of every mode's current level.
func (t *Tracker) Levels() map[mode.Mode]float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[mode.Mode]float64, len(mode.All))
	for _, m := range mode.All {
		out[m] = t.get(m)
	}
	return out
}

// Adjust moves a mode's level by one step. foundHard raises the level
// (easier, more common words); otherwise it is lowered.
func (t *Tracker) Adjust(ctx context.Context, m mode.Mode, foundHard bool) (float64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delta := -Step
	if foundHard {
		delta = Step
	}
	return t.set(ctx, m, t.get(m)+delta)
}

// RecordOutcome applies the adjustment for a finished round. A correct
// answer lowers the level unless help was used, in which case the level
// stays put; a wrong answer raises it.
func (t *Tracker) RecordOutcome(ctx context.Context, m mode.Mode, correct, helpUsed bool) (float64, error) {
	switch {
	case correct && helpUsed:
		return t.Get(m), nil
	case correct:
		return t.Adjust(ctx, m, false)
	default:
		return t.Adjust(ctx, m, true)
	}
}

// Set stores an explicit level for a mode.
func (t *Tracker) Set(ctx context.Context, m mode.Mode, level float64) (float64, error) {
	if math.IsNaN(level) || math.IsInf(level, 0) {
		return 0, fmt.Errorf("invalid level %v", level)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.set(ctx, m, level)
}

// Reset returns a mode to DefaultLevel and forgets its stored value.
func (t *Tracker) Reset(ctx context.Context, m mode.Mode) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.kv.Delete(ctx, Key(m)); err != nil {
		return fmt.Errorf("reset level for %s: %w", m, err)
	}
	delete(t.levels, m)
	return nil
}

func (t *Tracker) set(ctx context.Context, m mode.Mode, level float64) (float64, error) {
	level = normalize(level)
	if err := t.kv.Set(ctx, Key(m), strconv.FormatFloat(level, 'f', -1, 64)); err != nil {
		return t.get(m), fmt.Errorf("save level for %s: %w", m, err)
	}
	t.levels[m] = level
	return level, nil
}

// normalize clamps the level and rounds it to two decimals so repeated
// steps never accumulate float drift (5.00 - 0.05 is exactly 4.95).
func normalize(level float64) float64 {
	level = math.Round(level*100) / 100
	return math.Min(MaxLevel, math.Max(MinLevel, level))
}
