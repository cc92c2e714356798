package dictionary

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestLookup_Success(t *testing.T) {
	body := `[{
		"word": "bank",
		"meanings": [
			{
				"partOfSpeech": "noun",
				"definitions": [
					{"definition": "An institution that holds money.", "example": "I went to the bank."},
					{"definition": "The edge of a river."}
				],
				"synonyms": ["shore", "depository"]
			},
			{
				"partOfSpeech": "verb",
				"definitions": [{"definition": "To deposit money.", "example": ""}]
			}
		]
	}, {
		"word": "bank",
		"meanings": [{"partOfSpeech": "noun", "definitions": [{"definition": "A row of similar objects."}]}]
	}]`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bank", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, quietLogger())
	senses, err := c.Lookup(context.Background(), "bank")
	require.NoError(t, err)

	require.Len(t, senses, 3)
	assert.Equal(t, Sense{
		Definition:   "An institution that holds money.",
		PartOfSpeech: "noun",
		Example:      "I went to the bank.",
		Synonyms:     []string{"shore", "depository"},
	}, senses[0])
	assert.Equal(t, "The edge of a river.", senses[1].Definition)
	assert.Equal(t, "verb", senses[2].PartOfSpeech)
	assert.Empty(t, senses[2].Synonyms)
}

func TestLookup_NonSuccessIsNotFound(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusInternalServerError, http.StatusTooManyRequests} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			w.Write([]byte(`{"title":"No Definitions Found"}`))
		}))

		_, err := NewClient(srv.URL, quietLogger()).Lookup(context.Background(), "zzyzx")
		assert.ErrorIs(t, err, ErrWordNotFound, "status %d", status)
		srv.Close()
	}
}

func TestLookup_EmptyEntry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"word":"bank","meanings":[]}]`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, quietLogger()).Lookup(context.Background(), "bank")
	assert.ErrorIs(t, err, ErrWordNotFound)
}

func TestLookup_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, quietLogger()).Lookup(context.Background(), "bank")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrWordNotFound)
}

func TestLookup_EscapesWord(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.EscapedPath()
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	NewClient(srv.URL+"/", quietLogger()).Lookup(context.Background(), "ice cream")
	assert.Equal(t, "/ice%20cream", got)
}
