package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

func TestPostForm(t *testing.T) {
	var gotContentType, gotBody, gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		gotContentType = r.Header.Get("Content-Type")
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseForm(); err != nil {
			t.Fatalf("Failed to parse form: %v", err)
		}
		gotBody = r.PostForm.Encode()
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(`{"ok":true}`)); err != nil {
			t.Errorf("Failed to write response: %v", err)
		}
	}))
	defer server.Close()

	client := New(nil)
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("scope", "read write")

	resp, err := client.PostForm(context.Background(), server.URL, form, map[string]string{
		"Authorization": "Basic abc123",
	})
	if err != nil {
		t.Fatalf("PostForm failed: %v", err)
	}
	defer func() { _ = resp.SafeClose() }()

	if gotContentType != "application/x-www-form-urlencoded" {
		t.Errorf("Expected form content type, got %q", gotContentType)
	}
	if gotAuth != "Basic abc123" {
		t.Errorf("Expected Authorization header to pass through, got %q", gotAuth)
	}
	if gotBody != form.Encode() {
		t.Errorf("Expected body %q, got %q", form.Encode(), gotBody)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
}

func TestErrorStatusReturnsResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		if _, err := w.Write([]byte(`{"error":"invalid_grant"}`)); err != nil {
			t.Errorf("Failed to write response: %v", err)
		}
	}))
	defer server.Close()

	client := New(nil)
	resp, err := client.PostForm(context.Background(), server.URL, url.Values{}, nil)
	if err != nil {
		t.Fatalf("Expected no transport error for HTTP 400, got: %v", err)
	}
	defer func() { _ = resp.SafeClose() }()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", resp.StatusCode)
	}
	if resp.String() != `{"error":"invalid_grant"}` {
		t.Errorf("Expected error body to be readable, got %q", resp.String())
	}
}

func TestJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte(`{"access_token":"tok-1","expires_in":3600}`)); err != nil {
			t.Errorf("Failed to write response: %v", err)
		}
	}))
	defer server.Close()

	client := New(nil)
	resp, err := client.Get(context.Background(), server.URL, nil)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	defer func() { _ = resp.SafeClose() }()

	var parsed struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := resp.JSON(&parsed); err != nil {
		t.Fatalf("JSON failed: %v", err)
	}
	if parsed.AccessToken != "tok-1" || parsed.ExpiresIn != 3600 {
		t.Errorf("Unexpected parsed response: %+v", parsed)
	}
}

func TestContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer server.Close()

	client := New(nil)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Get(ctx, server.URL, nil)
	if err == nil {
		t.Fatal("Expected error from cancelled context")
	}
}

func TestNoRetries(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := New(nil)
	resp, err := client.PostForm(context.Background(), server.URL, url.Values{}, nil)
	if err != nil {
		t.Fatalf("PostForm failed: %v", err)
	}
	defer func() { _ = resp.SafeClose() }()

	if calls != 1 {
		t.Errorf("Expected exactly one request, got %d", calls)
	}
}
