package mailer

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/timecapsule/capsule-engine/internal/domain"
)

var deliveryHTML = template.Must(template.New("delivery").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1>Your Time Capsule Has Arrived!</h1>
    <p>Hello {{.Name}},</p>
    <p>The moment has arrived! Your time capsule <strong>"{{.Title}}"</strong> that you created on {{.CreatedOn}} is now open!</p>
    <div style="background: #f9f9f9; padding: 20px; border-radius: 8px;">
      <h2>{{.Title}}</h2>
      <p><strong>Category:</strong> {{.Category}}</p>
      <p style="font-style: italic; padding: 15px; background: #f0f0f0; border-left: 4px solid #667eea;">{{.Message}}</p>
      {{if .Tags}}<p><strong>Tags:</strong> {{.Tags}}</p>{{end}}
      {{if .Files}}
      <h3>Attached Files:</h3>
      <ul>{{range .Files}}<li>{{.Filename}}</li>{{end}}</ul>
      {{end}}
    </div>
    <p>We hope this message from your past brings you joy and wonderful memories!</p>
    <p><a href="{{.Link}}" style="display: inline-block; padding: 12px 30px; background: #667eea; color: white; text-decoration: none; border-radius: 5px;">View Your Capsules</a></p>
  </div>
</body>
</html>`))

var reminderHTML = template.Must(template.New("reminder").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1>Time Capsule Reminder</h1>
    <p>Hello {{.Name}},</p>
    <p>Just a friendly reminder that your time capsule <strong>"{{.Title}}"</strong> will open soon!</p>
    <div style="background: white; padding: 20px; border-radius: 8px; text-align: center;">
      <div style="font-size: 48px; font-weight: bold; color: #f5576c;">{{.DaysUntil}}</div>
      <div>{{.DayWord}} Until Opening</div>
    </div>
    <p><strong>Opening Date:</strong> {{.OpensOn}}</p>
    <p><strong>Category:</strong> {{.Category}}</p>
    <p>Get ready to revisit the memories and thoughts you preserved!</p>
    <p><a href="{{.Link}}" style="display: inline-block; padding: 12px 30px; background: #f5576c; color: white; text-decoration: none; border-radius: 5px;">View Details</a></p>
  </div>
</body>
</html>`))

type deliveryData struct {
	Name      string
	Title     string
	Message   string
	Category  string
	Tags      string
	Files     []domain.FileRef
	CreatedOn string
	Link      string
}

type reminderData struct {
	Name      string
	Title     string
	Category  string
	DaysUntil int
	DayWord   string
	OpensOn   string
	Link      string
}

// BuildDeliveryEmail renders the main capsule-opened notification.
func BuildDeliveryEmail(c *domain.Capsule, appURL string) (Message, error) {
	if c == nil {
		return Message{}, fmt.Errorf("%w: capsule is required", domain.ErrValidation)
	}

	link := capsulesLink(appURL)
	data := deliveryData{
		Name:      c.Creator.DisplayName(),
		Title:     c.Title,
		Message:   c.Message,
		Category:  c.Category.String(),
		Tags:      strings.Join(c.Tags, ", "),
		Files:     c.Files,
		CreatedOn: c.CreatedAt.Format("January 2, 2006"),
		Link:      link,
	}

	var html strings.Builder
	if err := deliveryHTML.Execute(&html, data); err != nil {
		return Message{}, fmt.Errorf("failed to render delivery email: %w", err)
	}

	text := fmt.Sprintf(`Your Time Capsule "%s" is Now Open!

Hello %s,

The moment has arrived! Your time capsule "%s" that you created on %s is now open!

Message: %s

We hope this message from your past brings you joy and wonderful memories!

View your capsules at: %s
`, c.Title, data.Name, c.Title, data.CreatedOn, c.Message, link)

	return Message{
		To:       c.CreatorEmail(),
		Subject:  fmt.Sprintf("Your Time Capsule %q is Now Open!", c.Title),
		HTML:     html.String(),
		Text:     text,
		Priority: c.Priority,
	}, nil
}

// BuildReminderEmail renders the pre-delivery countdown notification.
func BuildReminderEmail(c *domain.Capsule, daysUntil int, appURL string) (Message, error) {
	if c == nil {
		return Message{}, fmt.Errorf("%w: capsule is required", domain.ErrValidation)
	}

	link := capsulesLink(appURL)
	data := reminderData{
		Name:      c.Creator.DisplayName(),
		Title:     c.Title,
		Category:  c.Category.String(),
		DaysUntil: daysUntil,
		DayWord:   dayWord(daysUntil),
		OpensOn:   c.ScheduleDate.Format("January 2, 2006"),
		Link:      link,
	}

	var html strings.Builder
	if err := reminderHTML.Execute(&html, data); err != nil {
		return Message{}, fmt.Errorf("failed to render reminder email: %w", err)
	}

	text := fmt.Sprintf(`Time Capsule Reminder

Hello %s,

Your time capsule "%s" will open in %d %s!

Opening Date: %s
Category: %s

Get ready to revisit the memories and thoughts you preserved!

View details at: %s
`, data.Name, c.Title, daysUntil, strings.ToLower(dayWord(daysUntil)), data.OpensOn, c.Category, link)

	return Message{
		To:       c.CreatorEmail(),
		Subject:  fmt.Sprintf("Reminder: Your Time Capsule Opens in %d %s!", daysUntil, dayWord(daysUntil)),
		HTML:     html.String(),
		Text:     text,
		Priority: c.Priority,
	}, nil
}

func dayWord(days int) string {
	if days == 1 {
		return "Day"
	}
	return "Days"
}

func capsulesLink(appURL string) string {
	base := strings.TrimRight(strings.TrimSpace(appURL), "/")
	if base == "" {
		base = "http://localhost:3000"
	}
	return base + "/my-capsules"
}
