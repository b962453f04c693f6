package mailer

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/timecapsule/capsule-engine/internal/domain"
)

const defaultRelayTimeout = 10 * time.Second

type relayRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html,omitempty"`
	Text    string `json:"text,omitempty"`
}

// RelayMailer delivers email through an HTTP mail-relay endpoint
// (the transactional mail service fronting SMTP for the application).
type RelayMailer struct {
	client   *resty.Client
	endpoint string
	from     string
}

func NewRelayMailer(endpoint, from string) (*RelayMailer, error) {
	client := resty.New()
	client.SetTimeout(defaultRelayTimeout)
	client.SetRetryCount(0)

	return NewRelayMailerWithClient(endpoint, from, client)
}

func NewRelayMailerWithClient(endpoint, from string, client *resty.Client) (*RelayMailer, error) {
	trimmedEndpoint := strings.TrimSpace(endpoint)
	if trimmedEndpoint == "" {
		return nil, fmt.Errorf("mail relay endpoint is required")
	}
	if _, err := url.ParseRequestURI(trimmedEndpoint); err != nil {
		return nil, fmt.Errorf("invalid mail relay endpoint: %w", err)
	}
	if strings.TrimSpace(from) == "" {
		return nil, fmt.Errorf("sender address is required")
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultRelayTimeout)
	}
	// Retries belong to the retry engine, never to the transport.
	client.SetRetryCount(0)

	return &RelayMailer{
		client:   client,
		endpoint: trimmedEndpoint,
		from:     strings.TrimSpace(from),
	}, nil
}

func (m *RelayMailer) Send(ctx context.Context, msg Message) error {
	if m == nil || m.client == nil {
		return fmt.Errorf("mailer is not initialized")
	}
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("invalid message: %w", err)
	}

	reqBody := relayRequest{
		From:    m.from,
		To:      msg.To,
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
	}

	response, err := m.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Priority", priorityHeader(msg.Priority)).
		SetBody(reqBody).
		Post(m.endpoint)
	if err != nil {
		return fmt.Errorf("mail relay request failed: %w", err)
	}
	if response == nil {
		return fmt.Errorf("mail relay returned empty response")
	}

	statusCode := response.StatusCode()
	if statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices {
		return nil
	}

	body := strings.TrimSpace(response.String())
	if body == "" {
		return fmt.Errorf("mail relay returned status %d", statusCode)
	}
	return fmt.Errorf("mail relay returned status %d: %s", statusCode, body)
}

func priorityHeader(p domain.Priority) string {
	switch p {
	case domain.PriorityUrgent:
		return "1"
	case domain.PriorityHigh:
		return "2"
	case domain.PriorityLow:
		return "4"
	default:
		return "3"
	}
}
