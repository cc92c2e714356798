// Package catalog loads the word-frequency list and answers range queries
// over Zipf scores.
package catalog

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// DefaultHalfWidth is the half width of the Zipf window used when picking
// candidates for a level.
const DefaultHalfWidth = 0.05

// rangeEpsilon absorbs float noise at the window edges so that a word at
// exactly level±halfWidth is always included.
const rangeEpsilon = 1e-9

var wordPattern = regexp.MustCompile(`^[A-Za-z'\- ]+$`)

// WordEntry is one word of the frequency list.
type WordEntry struct {
	Word string
	Zipf float64
}

// Sources names where the data files live.
type Sources struct {
	// FrequencyPrimary and FrequencyFallback are tried in order.
	FrequencyPrimary  string
	FrequencyFallback string
	MaleNames         string
	FemaleNames       string
}

// Catalog is the filtered, immutable word list.
type Catalog struct {
	entries map[string]WordEntry
	byZipf  []WordEntry // sorted by Zipf, then word
}

// New builds a catalog from raw word→zipf pairs, dropping any word that
// fails the filter against the given (lowercase) names.
func New(raw map[string]float64, names []string) *Catalog {
	nameSet := lo.Associate(names, func(n string) (string, struct{}) {
		return strings.ToLower(n), struct{}{}
	})

	c := &Catalog{entries: make(map[string]WordEntry, len(raw))}
	for w, z := range raw {
		if !keepWord(w, nameSet) {
			continue
		}
		e := WordEntry{Word: w, Zipf: z}
		c.entries[w] = e
		c.byZipf = append(c.byZipf, e)
	}
	sort.Slice(c.byZipf, func(i, j int) bool {
		if c.byZipf[i].Zipf != c.byZipf[j].Zipf {
			return c.byZipf[i].Zipf < c.byZipf[j].Zipf
		}
		return c.byZipf[i].Word < c.byZipf[j].Word
	})
	return c
}

func keepWord(w string, names map[string]struct{}) bool {
	if len(w) < 2 || !wordPattern.MatchString(w) {
		return false
	}
	_, isName := names[strings.ToLower(w)]
	return !isName
}

// Load fetches the name lists and the frequency document and builds the
// catalog. Failures are logged and degrade to empty data; Load never
// returns nil.
func Load(ctx context.Context, f *Fetcher, src Sources, log logrus.FieldLogger) *Catalog {
	var names []string
	for _, loc := range []string{src.MaleNames, src.FemaleNames} {
		if loc == "" {
			continue
		}
		data, err := f.Fetch(ctx, loc)
		if err != nil {
			log.WithError(err).WithField("source", loc).Warn("name list unavailable")
			continue
		}
		names = append(names, parseNameList(data)...)
	}
	names = lo.Uniq(names)

	data, loc, err := f.FetchFirst(ctx, src.FrequencyPrimary, src.FrequencyFallback)
	if err != nil {
		log.WithError(err).Warn("word frequency list unavailable")
		return New(nil, names)
	}

	raw, err := parseFrequencyDoc(data)
	if err != nil {
		log.WithError(err).WithField("source", loc).Warn("word frequency list rejected")
		return New(nil, names)
	}

	c := New(raw, names)
	log.WithFields(logrus.Fields{
		"source":  loc,
		"words":   c.Len(),
		"dropped": len(raw) - c.Len(),
		"names":   len(names),
	}).Debug("catalog loaded")
	return c
}

// Len returns the number of words kept.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Lookup returns the entry for a word.
func (c *Catalog) Lookup(word string) (WordEntry, bool) {
	e, ok := c.entries[word]
	return e, ok
}

// Entries returns a copy of the catalog as a map.
func (c *Catalog) Entries() map[string]WordEntry {
	out := make(map[string]WordEntry, len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}
	return out
}

// EntriesInRange returns every word whose Zipf lies in
// [level-halfWidth, level+halfWidth], both ends inclusive, sorted
// alphabetically. Both bounds are widened by rangeEpsilon (1e-9), so a word
// up to 1e-9 outside the nominal window is also returned.
func (c *Catalog) EntriesInRange(level, halfWidth float64) []string {
	low, high := level-halfWidth-rangeEpsilon, level+halfWidth+rangeEpsilon
	start := sort.Search(len(c.byZipf), func(i int) bool { return c.byZipf[i].Zipf >= low })

	var words []string
	for i := start; i < len(c.byZipf) && c.byZipf[i].Zipf <= high; i++ {
		words = append(words, c.byZipf[i].Word)
	}
	sort.Strings(words)
	return words
}

// Stats summarises the catalog.
type Stats struct {
	Words   int
	MinZipf float64
	MaxZipf float64
	// Buckets counts words per whole Zipf unit: bucket 4 holds [4, 5).
	Buckets map[int]int
}

// Stats computes summary statistics.
func (c *Catalog) Stats() Stats {
	s := Stats{Words: len(c.byZipf), Buckets: map[int]int{}}
	if len(c.byZipf) == 0 {
		return s
	}
	s.MinZipf = c.byZipf[0].Zipf
	s.MaxZipf = c.byZipf[len(c.byZipf)-1].Zipf
	for _, e := range c.byZipf {
		s.Buckets[int(math.Floor(e.Zipf))]++
	}
	return s
}
