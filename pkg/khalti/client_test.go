package khalti

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/mountemart/backend/pkg/config"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func TestLookupCompleted(t *testing.T) {
	var capturedAuth string
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		capturedAuth = req.Header.Get("Authorization")

		bodyBytes, err := io.ReadAll(req.Body)
		if err != nil {
			t.Fatalf("read request body: %v", err)
		}
		var payload map[string]any
		if err := json.Unmarshal(bodyBytes, &payload); err != nil {
			t.Fatalf("unmarshal request body: %v", err)
		}
		if payload["pidx"] != "pidx-900" {
			t.Fatalf("unexpected pidx %q", payload["pidx"])
		}

		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(`{"status":"Completed","transaction_id":"txn-55"}`)),
			Header:     http.Header{},
		}, nil
	})

	client, err := NewClient(
		config.KhaltiConfig{StatusURL: "http://khalti.test/epayment/lookup/", SecretKey: "key-1"},
		WithHTTPClient(&http.Client{Transport: rt}),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	status, txnID, err := client.Lookup(context.Background(), "pidx-900")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if status != StatusCompleted {
		t.Fatalf("status = %q, want %q", status, StatusCompleted)
	}
	if txnID != "txn-55" {
		t.Fatalf("transaction id = %q", txnID)
	}
	if capturedAuth != "Key key-1" {
		t.Fatalf("authorization header = %q", capturedAuth)
	}
}

func TestNewClientRequiresSecret(t *testing.T) {
	if _, err := NewClient(config.KhaltiConfig{StatusURL: "http://khalti.test"}); err == nil {
		t.Fatal("expected error for missing secret key")
	}
}
