package mailer

import (
	"strings"
	"testing"
	"time"

	"github.com/timecapsule/capsule-engine/internal/domain"
)

func testCapsule() *domain.Capsule {
	return &domain.Capsule{
		ID:           "c1",
		Title:        "Graduation",
		Message:      "You made it. Remember this day.",
		Category:     domain.CategoryAcademic,
		Tags:         []string{"school", "milestone"},
		Files:        []domain.FileRef{{Filename: "photo.jpg"}},
		ScheduleDate: time.Date(2026, 6, 15, 9, 0, 0, 0, time.UTC),
		Priority:     domain.PriorityHigh,
		Creator:      &domain.User{Name: "Ada", Email: "ada@example.com"},
		CreatedAt:    time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC),
	}
}

func TestBuildDeliveryEmail(t *testing.T) {
	t.Parallel()

	msg, err := BuildDeliveryEmail(testCapsule(), "https://timecapsule.app/")
	if err != nil {
		t.Fatalf("BuildDeliveryEmail() error = %v", err)
	}

	if msg.To != "ada@example.com" {
		t.Fatalf("to = %q, want creator email", msg.To)
	}
	if !strings.Contains(msg.Subject, "Graduation") {
		t.Fatalf("subject %q should contain title", msg.Subject)
	}
	if msg.Priority != domain.PriorityHigh {
		t.Fatalf("priority = %s, want high", msg.Priority)
	}
	for _, want := range []string{"Hello Ada", "Graduation", "school, milestone", "photo.jpg", "https://timecapsule.app/my-capsules"} {
		if !strings.Contains(msg.HTML, want) {
			t.Fatalf("html body missing %q", want)
		}
	}
	if !strings.Contains(msg.Text, "You made it. Remember this day.") {
		t.Fatal("text body missing capsule message")
	}
}

func TestBuildDeliveryEmailEscapesContent(t *testing.T) {
	t.Parallel()

	c := testCapsule()
	c.Message = `<script>alert("x")</script>`

	msg, err := BuildDeliveryEmail(c, "https://timecapsule.app")
	if err != nil {
		t.Fatalf("BuildDeliveryEmail() error = %v", err)
	}
	if strings.Contains(msg.HTML, "<script>") {
		t.Fatal("html body should escape capsule content")
	}
}

func TestBuildReminderEmail(t *testing.T) {
	t.Parallel()

	msg, err := BuildReminderEmail(testCapsule(), 1, "")
	if err != nil {
		t.Fatalf("BuildReminderEmail() error = %v", err)
	}

	if !strings.Contains(msg.Subject, "1 Day!") {
		t.Fatalf("subject %q should use singular day form", msg.Subject)
	}
	if !strings.Contains(msg.HTML, "June 15, 2026") {
		t.Fatal("html body missing opening date")
	}
	if !strings.Contains(msg.HTML, "http://localhost:3000/my-capsules") {
		t.Fatal("html body should fall back to the default app url")
	}

	plural, err := BuildReminderEmail(testCapsule(), 3, "")
	if err != nil {
		t.Fatalf("BuildReminderEmail() error = %v", err)
	}
	if !strings.Contains(plural.Subject, "3 Days!") {
		t.Fatalf("subject %q should use plural day form", plural.Subject)
	}
}
