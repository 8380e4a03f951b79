package emails

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const brevoAPI = "https://api.brevo.com/v3/smtp/email"

// BrevoSendRequest matches the Brevo v3 transactional email body.
type BrevoSendRequest struct {
	Sender      BrevoContact   `json:"sender"`
	To          []BrevoContact `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
	ReplyTo     *BrevoContact  `json:"replyTo,omitempty"`
}

type BrevoContact struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Sender sends transactional emails. A nil Sender means no mail.
type Sender interface {
	SendWelcome(ctx context.Context, toEmail, firstName string) error
	SendProjectFunded(ctx context.Context, toEmail, firstName string, project FundedProject) error
}

// FundedProject is what the funded email needs to know about a project.
type FundedProject struct {
	ID             string
	Title          string
	FundingGoal    float64
	CurrentFunding float64
}

// BrevoClient sends emails via the Brevo (Sendinblue) API. An empty APIKey disables sending.
type BrevoClient struct {
	APIKey   string
	MailFrom string
	Endpoint string
	Client   *http.Client
}

func (c *BrevoClient) from() string {
	if c.MailFrom != "" {
		return c.MailFrom
	}
	return "noreply@greenpulse.org"
}

func (c *BrevoClient) endpoint() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	return brevoAPI
}

func (c *BrevoClient) send(ctx context.Context, toEmail, subject, html string) error {
	if c.APIKey == "" {
		return nil
	}
	body := BrevoSendRequest{
		Sender:      BrevoContact{Email: c.from(), Name: "GreenPulse"},
		To:          []BrevoContact{{Email: toEmail}},
		Subject:     subject,
		HTMLContent: html,
		ReplyTo:     &BrevoContact{Email: supportEmail, Name: "GreenPulse Support"},
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(bodyBytes))
	if err != nil {
		return err
	}
	req.Header.Set("api-key", c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("brevo send failed: status %d", resp.StatusCode)
	}
	return nil
}

// SendWelcome is sent after account creation.
func (c *BrevoClient) SendWelcome(ctx context.Context, toEmail, firstName string) error {
	if firstName == "" {
		firstName = "there"
	}
	return c.send(ctx, toEmail, "Welcome to GreenPulse!", EmailLayout(welcomeContent(firstName)))
}

// SendProjectFunded tells a project owner their goal has been reached.
func (c *BrevoClient) SendProjectFunded(ctx context.Context, toEmail, firstName string, project FundedProject) error {
	if firstName == "" {
		firstName = "there"
	}
	subject := fmt.Sprintf("%s is fully funded", project.Title)
	return c.send(ctx, toEmail, subject, EmailLayout(fundedContent(firstName, project)))
}

func welcomeContent(userName string) string {
	return fmt.Sprintf(`
    <h1>Welcome to GreenPulse, %s!</h1>
    <p>Your account is ready. Browse community renewable-energy projects and help bring them to life.</p>
    <center>
      <a href="%s" class="gp-button">Explore Projects</a>
    </center>
    <p style="margin-top: 20px; font-size: 14px; color: #666;">
      If you did not sign up for this account, please contact our support team.
    </p>
    <p>The GreenPulse Team</p>
`, EscapeHTML(userName), siteURL+"projects")
}

func fundedContent(userName string, p FundedProject) string {
	return fmt.Sprintf(`
    <h1>Your project is fully funded</h1>
    <p>Hi %s,</p>
    <p>Donors have reached the funding goal for <strong>%s</strong>: %s raised of a %s goal. Donations are now closed while our team prepares implementation.</p>
    <center>
      <a href="%s" class="gp-button">View Project</a>
    </center>
    <p>The GreenPulse Team</p>
`, EscapeHTML(userName), EscapeHTML(p.Title), FormatAmount(p.CurrentFunding), FormatAmount(p.FundingGoal), siteURL+"projects/"+p.ID)
}
