// Package dictionary looks words up in the Free Dictionary API.
package dictionary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultBaseURL is the public Free Dictionary endpoint.
const DefaultBaseURL = "https://api.dictionaryapi.dev/api/v2/entries/en"

// ErrWordNotFound is returned for any non-2xx answer or an entry without
// definitions.
var ErrWordNotFound = errors.New("word not found")

// Sense is one definition of a word, flattened out of its meaning group.
type Sense struct {
	Definition   string
	PartOfSpeech string
	Example      string
	Synonyms     []string
}

// Client fetches dictionary entries.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        logrus.FieldLogger
}

// NewClient creates a Client. An empty baseURL uses DefaultBaseURL.
func NewClient(baseURL string, log logrus.FieldLogger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log.WithField("adapter", "dictionary"),
	}
}

type apiEntry struct {
	Word     string       `json:"word"`
	Meanings []apiMeaning `json:"meanings"`
}

type apiMeaning struct {
	PartOfSpeech string          `json:"partOfSpeech"`
	Definitions  []apiDefinition `json:"definitions"`
	Synonyms     []string        `json:"synonyms"`
}

type apiDefinition struct {
	Definition string `json:"definition"`
	Example    string `json:"example"`
}

// Lookup returns every sense of the first entry for word.
func (c *Client) Lookup(ctx context.Context, word string) ([]Sense, error) {
	reqURL := c.baseURL + "/" + url.PathEscape(word)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dictionary: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dictionary: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.WithFields(logrus.Fields{"word": word, "status": resp.StatusCode}).Debug("dictionary miss")
		return nil, fmt.Errorf("%w: %q (status %d)", ErrWordNotFound, word, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("dictionary: read body: %w", err)
	}

	var entries []apiEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("dictionary: decode json: %w", err)
	}

	senses := flatten(entries)
	if len(senses) == 0 {
		return nil, fmt.Errorf("%w: %q has no definitions", ErrWordNotFound, word)
	}

	c.log.WithFields(logrus.Fields{"word": word, "senses": len(senses)}).Debug("dictionary hit")
	return senses, nil
}

// flatten collects the senses of the first entry across all its meanings.
func flatten(entries []apiEntry) []Sense {
	if len(entries) == 0 {
		return nil
	}
	var out []Sense
	for _, m := range entries[0].Meanings {
		for _, d := range m.Definitions {
			if strings.TrimSpace(d.Definition) == "" {
				continue
			}
			out = append(out, Sense{
				Definition:   d.Definition,
				PartOfSpeech: m.PartOfSpeech,
				Example:      d.Example,
				Synonyms:     m.Synonyms,
			})
		}
	}
	return out
}
