package esewa

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mountemart/backend/pkg/config"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func TestCheckStatusComplete(t *testing.T) {
	var capturedURL string
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(`{"status":"COMPLETE","ref_id":"0001AB"}`)),
			Header:     http.Header{},
		}, nil
	})

	client, err := NewClient(
		config.EsewaConfig{StatusURL: "http://esewa.test/api/epay/transaction/status/"},
		WithHTTPClient(&http.Client{Transport: rt}),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	status, refID, err := client.CheckStatus(context.Background(), "EPAYTEST", "txn-123", decimal.NewFromInt(880))
	if err != nil {
		t.Fatalf("check status: %v", err)
	}
	if status != StatusComplete {
		t.Fatalf("status = %q, want %q", status, StatusComplete)
	}
	if refID != "0001AB" {
		t.Fatalf("ref id = %q", refID)
	}
	for _, fragment := range []string{"product_code=EPAYTEST", "transaction_uuid=txn-123", "total_amount=880.00"} {
		if !strings.Contains(capturedURL, fragment) {
			t.Fatalf("url %q missing %q", capturedURL, fragment)
		}
	}
}

func TestCheckStatusNon200(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusServiceUnavailable,
			Body:       io.NopCloser(strings.NewReader(`upstream error`)),
			Header:     http.Header{},
		}, nil
	})

	client, err := NewClient(
		config.EsewaConfig{StatusURL: "http://esewa.test/status"},
		WithHTTPClient(&http.Client{Transport: rt}),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	if _, _, err := client.CheckStatus(context.Background(), "EPAYTEST", "txn-123", decimal.NewFromInt(10)); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestCheckStatusRetriesServerErrors(t *testing.T) {
	attempts := 0
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		attempts++
		if attempts == 1 {
			return &http.Response{
				StatusCode: http.StatusBadGateway,
				Body:       io.NopCloser(strings.NewReader(`upstream error`)),
				Header:     http.Header{},
			}, nil
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(`{"status":"PENDING","ref_id":""}`)),
			Header:     http.Header{},
		}, nil
	})

	client, err := NewClient(
		config.EsewaConfig{StatusURL: "http://esewa.test/status"},
		WithHTTPClient(&http.Client{Transport: rt}),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	status, _, err := client.CheckStatus(context.Background(), "EPAYTEST", "txn-123", decimal.NewFromInt(10))
	if err != nil {
		t.Fatalf("check status: %v", err)
	}
	if status != StatusPending {
		t.Fatalf("status = %q, want %q", status, StatusPending)
	}
	if attempts != 2 {
		t.Fatalf("attempts = %d, want 2", attempts)
	}
}

func TestCheckStatusDoesNotRetryClientErrors(t *testing.T) {
	attempts := 0
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		attempts++
		return &http.Response{
			StatusCode: http.StatusBadRequest,
			Body:       io.NopCloser(strings.NewReader(`bad request`)),
			Header:     http.Header{},
		}, nil
	})

	client, err := NewClient(
		config.EsewaConfig{StatusURL: "http://esewa.test/status"},
		WithHTTPClient(&http.Client{Transport: rt}),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	if _, _, err := client.CheckStatus(context.Background(), "EPAYTEST", "txn-123", decimal.NewFromInt(10)); err == nil {
		t.Fatal("expected error for 400 response")
	}
	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1", attempts)
	}
}

func TestNewClientRequiresStatusURL(t *testing.T) {
	if _, err := NewClient(config.EsewaConfig{}); err == nil {
		t.Fatal("expected error for missing status url")
	}
}
