package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNotifySendsWebhook(t *testing.T) {
	var payloads []map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p map[string]string
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Errorf("bad webhook payload: %v", err)
		}
		payloads = append(payloads, p)
	}))
	defer srv.Close()

	n := NewNotifier(srv.URL)
	n.Notify("Claimed 2 offers", LevelSuccess)

	if len(payloads) != 1 {
		t.Fatalf("webhook calls = %d, want 1", len(payloads))
	}
	text := payloads[0]["text"]
	if !strings.Contains(text, "Claimed 2 offers") {
		t.Errorf("payload text = %q", text)
	}
	if !strings.Contains(text, "✅") {
		t.Errorf("payload text %q missing the success icon", text)
	}
	if payloads[0]["message"] != text {
		t.Error("payload message should mirror text")
	}
}

func TestNotifyWithoutWebhook(t *testing.T) {
	// Must not panic or attempt any request.
	n := NewNotifier("")
	n.Notify("just console", LevelInfo)
}

func TestNotifyWebhookFailureTolerated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	// Delivery failure is reported on the console only.
	n := NewNotifier(srv.URL)
	n.Notify("oops", LevelError)
}

func TestNotifyRunSummary(t *testing.T) {
	var texts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p map[string]string
		json.NewDecoder(r.Body).Decode(&p)
		texts = append(texts, p["text"])
	}))
	defer srv.Close()

	n := NewNotifier(srv.URL)
	n.NotifyRun([]ClaimResult{
		{
			Offer:    Offer{URL: "https://store.example.com/en-US/p/alpha-game"},
			Attempts: []ClaimAttempt{{Number: 1, Title: "Alpha Game", Status: StatusClaimed}},
		},
		{
			Offer:    Offer{URL: "https://store.example.com/en-US/p/beta-bundle"},
			Attempts: []ClaimAttempt{{Number: 1, Title: "Beta Bundle", Status: StatusAlreadyOwned}},
		},
	})

	if len(texts) != 1 {
		t.Fatalf("webhook calls = %d, want 1", len(texts))
	}
	summary := texts[0]
	for _, want := range []string{
		"Claimed 1/2 free offers:",
		"Alpha Game - claimed",
		"Beta Bundle - already_owned",
		"https://store.example.com/en-US/p/alpha-game",
	} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q:\n%s", want, summary)
		}
	}
}

func TestNotifyRunEmpty(t *testing.T) {
	var texts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p map[string]string
		json.NewDecoder(r.Body).Decode(&p)
		texts = append(texts, p["text"])
	}))
	defer srv.Close()

	n := NewNotifier(srv.URL)
	n.NotifyRun(nil)

	if len(texts) != 1 {
		t.Fatalf("webhook calls = %d, want 1", len(texts))
	}
	if !strings.Contains(texts[0], "No free offers available") {
		t.Errorf("empty-run text = %q", texts[0])
	}
}
