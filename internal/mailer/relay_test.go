package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/timecapsule/capsule-engine/internal/domain"
)

func TestRelayMailerSendSuccess(t *testing.T) {
	t.Parallel()

	var gotBody relayRequest
	var gotPriority string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPriority = r.Header.Get("X-Priority")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	m, err := NewRelayMailer(server.URL, "noreply@timecapsule.app")
	if err != nil {
		t.Fatalf("NewRelayMailer() error = %v", err)
	}

	err = m.Send(context.Background(), Message{
		To:       "user@example.com",
		Subject:  "Your Time Capsule \"hello\" is Now Open!",
		HTML:     "<p>hi</p>",
		Text:     "hi",
		Priority: domain.PriorityUrgent,
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if gotBody.To != "user@example.com" {
		t.Fatalf("to = %q, want user@example.com", gotBody.To)
	}
	if gotBody.From != "noreply@timecapsule.app" {
		t.Fatalf("from = %q, want noreply@timecapsule.app", gotBody.From)
	}
	if gotPriority != "1" {
		t.Fatalf("X-Priority = %q, want 1 for urgent", gotPriority)
	}
}

func TestRelayMailerSendErrorStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "smtp upstream unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	m, err := NewRelayMailer(server.URL, "noreply@timecapsule.app")
	if err != nil {
		t.Fatalf("NewRelayMailer() error = %v", err)
	}

	err = m.Send(context.Background(), Message{
		To:      "user@example.com",
		Subject: "subject",
		Text:    "body",
	})
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}

func TestRelayMailerSendInvalidMessage(t *testing.T) {
	t.Parallel()

	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	m, err := NewRelayMailer(server.URL, "noreply@timecapsule.app")
	if err != nil {
		t.Fatalf("NewRelayMailer() error = %v", err)
	}

	err = m.Send(context.Background(), Message{To: "", Subject: "s", Text: "b"})
	if err == nil {
		t.Fatal("expected validation error for empty recipient")
	}
	if calls != 0 {
		t.Fatalf("relay calls = %d, want 0 for invalid message", calls)
	}
}

func TestNewRelayMailerValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewRelayMailer("", "from@example.com"); err == nil {
		t.Fatal("expected error for empty endpoint")
	}
	if _, err := NewRelayMailer("not a url", "from@example.com"); err == nil {
		t.Fatal("expected error for malformed endpoint")
	}
	if _, err := NewRelayMailer("https://mail.internal/send", ""); err == nil {
		t.Fatal("expected error for empty sender")
	}
}
