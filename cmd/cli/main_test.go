package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
)

func captureOutput(t *testing.T, fn func()) string {
	t.Helper()

	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	fn()

	_ = w.Close()
	os.Stdout = origStdout

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		t.Fatalf("failed to read stdout: %v", err)
	}
	return buf.String()
}

func TestPrintPretty(t *testing.T) {
	out := captureOutput(t, func() {
		printPretty([]byte(`{"a":1}`))
	})

	expected := "{\n  \"a\": 1\n}\n"
	if out != expected {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestPrintPretty_NotJSON(t *testing.T) {
	out := captureOutput(t, func() {
		printPretty([]byte("plain text"))
	})

	if strings.TrimSpace(out) != "plain text" {
		t.Fatalf("expected raw passthrough, got %q", out)
	}
}

func TestPost(t *testing.T) {
	var gotPath string
	var gotPayload map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotPayload)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	origURL := baseURL
	baseURL = srv.URL
	defer func() { baseURL = origURL }()

	status, body := post("/api/v1/wallets", map[string]any{"user_id": "user-1"})

	if status != http.StatusCreated {
		t.Fatalf("expected 201, got %d", status)
	}
	if gotPath != "/api/v1/wallets" {
		t.Errorf("path = %q", gotPath)
	}
	if gotPayload["user_id"] != "user-1" {
		t.Errorf("payload = %v", gotPayload)
	}
	if !bytes.Contains(body, []byte("ok")) {
		t.Errorf("body = %s", body)
	}
}

func TestRunBalanceAudit_Clean(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"wallets_checked":3,"consistent":true}`))
	}))
	defer srv.Close()

	origURL := baseURL
	baseURL = srv.URL
	defer func() { baseURL = origURL }()

	out := captureOutput(t, func() {
		runBalanceAudit()
	})

	if !strings.Contains(out, "PASSED") {
		t.Fatalf("expected PASSED in output, got:\n%s", out)
	}
}
