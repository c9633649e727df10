package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"collections_console/platform/apperr"
	"collections_console/platform/logger"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, 2*time.Second, logger.New("development"))
}

func TestLoginFormEncoded(t *testing.T) {
	var gotContentType, gotUsername string
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		r.ParseForm()
		gotUsername = r.PostForm.Get("username")
		json.NewEncoder(w).Encode(TokenResponse{AccessToken: "tok", TokenType: "bearer"})
	}))

	resp, err := client.Login(context.Background(), "agent", "secret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if resp.AccessToken != "tok" {
		t.Fatalf("got token %q", resp.AccessToken)
	}
	if gotContentType != "application/x-www-form-urlencoded" {
		t.Fatalf("credential exchange must be form-encoded, got %q", gotContentType)
	}
	if gotUsername != "agent" {
		t.Fatalf("got username %q", gotUsername)
	}
}

func TestLoginRejectedWithoutToken(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(TokenResponse{})
	}))

	if _, err := client.Login(context.Background(), "agent", "bad"); err == nil {
		t.Fatal("an empty access token is a rejected login")
	}
}

func TestBearerHeaderAttached(t *testing.T) {
	var gotAuth string
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode([]CaseRecord{})
	}))

	if _, err := client.ListCases(context.Background(), "tok"); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("got auth header %q", gotAuth)
	}
}

func TestUnauthorizedMapsToAuthExpired(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := client.ListCases(context.Background(), "stale")
	if !errors.Is(err, ErrAuthExpired) {
		t.Fatalf("expected ErrAuthExpired, got %v", err)
	}
}

func TestServerErrorMapsToUnreachable(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := client.ListCases(context.Background(), "tok")
	if !errors.Is(err, ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable, got %v", err)
	}
}

func TestTransportFailureMapsToUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := New(srv.URL, 2*time.Second, logger.New("development"))
	srv.Close()

	_, err := client.ListCases(context.Background(), "tok")
	if !errors.Is(err, ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable, got %v", err)
	}
}

func TestRejectionCarriesDetail(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"detail": "illegal transition"})
	}))

	_, err := client.UpdateStatus(context.Background(), "tok", "c1", "CLOSED", "")
	if err == nil {
		t.Fatal("expected rejection")
	}
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected a typed error, got %T", err)
	}
	if appErr.Message != "illegal transition" {
		t.Fatalf("the server detail must survive, got %q", appErr.Message)
	}
}

func TestIngestSendsMultipart(t *testing.T) {
	var gotContentType string
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		file, _, err := r.FormFile("file")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		file.Close()
		json.NewEncoder(w).Encode(IngestResult{Total: 2, Inserted: 2})
	}))

	result, err := client.Ingest(context.Background(), "tok", "cases.csv",
		strings.NewReader("company_name,amount\nAcme,100\nBinary,200\n"))
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if result.Inserted != 2 {
		t.Fatalf("got %+v", result)
	}
	if !strings.HasPrefix(gotContentType, "multipart/form-data") {
		t.Fatalf("expected multipart upload, got %q", gotContentType)
	}
}
