package research

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/user/debatecoach/internal/types"
)

func TestBraveSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Subscription-Token") != "test-key" {
			t.Error("missing API key header")
		}
		if r.URL.Query().Get("q") != "cashless society" {
			t.Errorf("unexpected query: %s", r.URL.Query().Get("q"))
		}
		if r.URL.Query().Get("count") != "4" {
			t.Errorf("unexpected count: %s", r.URL.Query().Get("count"))
		}
		json.NewEncoder(w).Encode(braveResponse{
			Web: braveWeb{
				Results: []braveResult{
					{Title: "Cashless economy", URL: "https://example.org/cashless", Description: "Overview"},
				},
			},
		})
	}))
	defer server.Close()

	b := NewBrave("test-key")
	b.baseURL = server.URL

	got, err := b.Search(context.Background(), "cashless society", 4)
	require.NoError(t, err)
	require.Equal(t, []types.Candidate{{Title: "Cashless economy", URL: "https://example.org/cashless", Snippet: "Overview"}}, got)
}

func TestBraveSearchNoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(braveResponse{})
	}))
	defer server.Close()

	b := NewBrave("test-key")
	b.baseURL = server.URL

	got, err := b.Search(context.Background(), "xyznonexistent", 0)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestBraveSearchAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	b := NewBrave("test-key")
	b.baseURL = server.URL

	_, err := b.Search(context.Background(), "q", 2)
	require.Error(t, err)
}

func TestBraveSearchRequiresQuery(t *testing.T) {
	_, err := NewBrave("k").Search(context.Background(), "", 2)
	require.Error(t, err)
}
