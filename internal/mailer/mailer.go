package mailer

import (
	"context"
	"fmt"
	"strings"

	"github.com/timecapsule/capsule-engine/internal/domain"
)

// Mailer is the outbound email port. Implementations carry no retry logic
// of their own; a returned error is indistinguishable transient-or-permanent
// and the retry engine treats it as retryable until its cap.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Message is a fully rendered email.
type Message struct {
	To       string
	Subject  string
	HTML     string
	Text     string
	Priority domain.Priority
}

func (m Message) Validate() error {
	if strings.TrimSpace(m.To) == "" {
		return fmt.Errorf("%w: recipient is required", domain.ErrValidation)
	}
	if strings.TrimSpace(m.Subject) == "" {
		return fmt.Errorf("%w: subject is required", domain.ErrValidation)
	}
	if strings.TrimSpace(m.HTML) == "" && strings.TrimSpace(m.Text) == "" {
		return fmt.Errorf("%w: message body is required", domain.ErrValidation)
	}
	return nil
}
