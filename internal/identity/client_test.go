package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestSignInInteractive_OK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/v1/signin" {
			t.Fatalf("path = %s, want /v1/signin", r.URL.Path)
		}

		var in SignInRequest
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if in.Credential != "google-assertion" {
			t.Fatalf("credential = %q", in.Credential)
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(signInResponse{IDToken: "token-123"}); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}))
	defer ts.Close()

	client := NewClient(ts.URL)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	token, err := client.SignInInteractive(ctx, SignInRequest{Credential: "google-assertion"})
	if err != nil {
		t.Fatalf("SignInInteractive error: %v", err)
	}
	if token != "token-123" {
		t.Fatalf("token = %q, want token-123", token)
	}
}

func TestSignInInteractive_ProviderError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":"auth/unauthorized-domain","message":"origin not allowed"}}`))
	}))
	defer ts.Close()

	client := NewClient(ts.URL)

	_, err := client.SignInInteractive(context.Background(), SignInRequest{Credential: "x"})

	var ie *Error
	if !errors.As(err, &ie) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if ie.Code != CodeUnauthorizedDomain {
		t.Fatalf("code = %s, want %s", ie.Code, CodeUnauthorizedDomain)
	}
	if ie.Message != "origin not allowed" {
		t.Fatalf("message = %q", ie.Message)
	}
}

func TestSignInInteractive_UnexpectedStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	client := NewClient(ts.URL)

	_, err := client.SignInInteractive(context.Background(), SignInRequest{Credential: "x"})
	if err == nil {
		t.Fatalf("expected error for 502")
	}
	if got := UserMessage(err); got != "로그인 중 오류가 발생했습니다: unexpected status: 502" {
		t.Fatalf("UserMessage = %q", got)
	}
}

func TestSignInInteractive_NotConfigured(t *testing.T) {
	var client *Client

	_, err := client.SignInInteractive(context.Background(), SignInRequest{})

	var ie *Error
	if !errors.As(err, &ie) || ie.Code != CodeOperationNotAllowed {
		t.Fatalf("expected operation-not-allowed, got %v", err)
	}
}

func TestSignInInteractive_RetriesTransientFailure(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(signInResponse{IDToken: "token-after-retry"})
	}))
	defer ts.Close()

	token, err := NewClient(ts.URL).SignInInteractive(context.Background(), SignInRequest{Credential: "x"})
	if err != nil {
		t.Fatalf("SignInInteractive error: %v", err)
	}
	if token != "token-after-retry" {
		t.Fatalf("token = %q", token)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("calls = %d, want 2", got)
	}
}
