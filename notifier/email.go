package notifier

import (
	"bytes"
	"fmt"
	"html/template"
	"log"
	"os"
	"time"

	gomail "gopkg.in/mail.v2"

	"medialog/insights"
	"medialog/store"
)

// EmailNotifier sends the weekly library digest over SMTP.
type EmailNotifier struct {
	smtpHost       string
	smtpPort       int
	senderEmail    string
	senderPass     string
	recipientEmail string
	htmlTemplate   *template.Template
}

// EmailConfig contains configuration for email notifications
type EmailConfig struct {
	SMTPHost       string
	SMTPPort       int
	SenderEmail    string
	SenderPassword string
	RecipientEmail string
}

// Digest is the data rendered into the weekly email.
type Digest struct {
	Date            string
	TotalItems      int
	WatchedItems    int
	PlaylistCount   int
	Insights        []insights.Insight
	RecentlyAdded   []store.Content
	RecentlyWatched []store.Content
}

// NewEmailNotifier creates a new email notifier
func NewEmailNotifier(config EmailConfig) (*EmailNotifier, error) {
	tmpl, err := template.New("digest").Parse(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>MediaLog - Weekly Library Digest</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 800px; margin: 0 auto; }
        h1 { color: #3b82f6; }
        h2 { color: #0f172a; margin-top: 30px; }
        table { width: 100%; border-collapse: collapse; margin-bottom: 20px; }
        th { background-color: #f4f4f4; text-align: left; padding: 10px; }
        td { padding: 10px; border-bottom: 1px solid #ddd; }
        .count { font-weight: bold; color: #3b82f6; }
        .insight { background-color: #eff6ff; padding: 10px; margin-bottom: 8px; border-radius: 4px; }
        .footer { font-size: 12px; color: #666; margin-top: 50px; text-align: center; }
    </style>
</head>
<body>
    <h1>MediaLog - Weekly Digest</h1>
    <p>Your library as of {{.Date}}: <span class="count">{{.TotalItems}}</span> items,
    <span class="count">{{.WatchedItems}}</span> watched,
    <span class="count">{{.PlaylistCount}}</span> playlists.</p>

    {{if .Insights}}
    <h2>Insights</h2>
    {{range .Insights}}
    <div class="insight"><strong>{{.Title}}:</strong> {{.Value}} &mdash; {{.Description}}</div>
    {{end}}
    {{end}}

    {{if .RecentlyAdded}}
    <h2>Recently Added ({{len .RecentlyAdded}})</h2>
    <table>
        <tr>
            <th>Title</th>
            <th>Type</th>
            <th>Platform</th>
            <th>Release</th>
        </tr>
        {{range .RecentlyAdded}}
        <tr>
            <td>{{.Title}}</td>
            <td>{{.Type}}</td>
            <td>{{.Platform}}</td>
            <td>{{.ReleaseDate}}</td>
        </tr>
        {{end}}
    </table>
    {{end}}

    {{if .RecentlyWatched}}
    <h2>Recently Watched ({{len .RecentlyWatched}})</h2>
    <table>
        <tr>
            <th>Title</th>
            <th>Type</th>
            <th>Rating</th>
        </tr>
        {{range .RecentlyWatched}}
        <tr>
            <td>{{.Title}}</td>
            <td>{{.Type}}</td>
            <td>{{if .Rating}}{{.Rating}}/5{{else}}-{{end}}</td>
        </tr>
        {{end}}
    </table>
    {{end}}

    <div class="footer">
        <p>This is an automated email from MediaLog. Please do not reply.</p>
    </div>
</body>
</html>
`)
	if err != nil {
		return nil, fmt.Errorf("failed to parse email template: %v", err)
	}

	return &EmailNotifier{
		smtpHost:       config.SMTPHost,
		smtpPort:       config.SMTPPort,
		senderEmail:    config.SenderEmail,
		senderPass:     config.SenderPassword,
		recipientEmail: config.RecipientEmail,
		htmlTemplate:   tmpl,
	}, nil
}

// GetEmailConfigFromEnv loads email configuration from environment variables
func GetEmailConfigFromEnv() EmailConfig {
	// Parse SMTP port with default value of 587 if not specified or invalid
	smtpPort := 587
	if portStr := os.Getenv("EMAIL_SMTP_PORT"); portStr != "" {
		if p, err := fmt.Sscanf(portStr, "%d", &smtpPort); err != nil || p != 1 {
			log.Printf("Invalid SMTP port '%s', using default 587", portStr)
			smtpPort = 587
		}
	}

	return EmailConfig{
		SMTPHost:       os.Getenv("EMAIL_SMTP_HOST"),
		SMTPPort:       smtpPort,
		SenderEmail:    os.Getenv("EMAIL_SENDER"),
		SenderPassword: os.Getenv("EMAIL_PASSWORD"),
		RecipientEmail: os.Getenv("EMAIL_RECIPIENT"),
	}
}

// SendDigest renders and sends the weekly digest email.
func (n *EmailNotifier) SendDigest(digest Digest) error {
	if n.recipientEmail == "" {
		log.Println("No recipient email configured, skipping digest")
		return nil
	}

	if digest.Date == "" {
		digest.Date = time.Now().Format("January 2, 2006")
	}

	var emailBody bytes.Buffer
	if err := n.htmlTemplate.Execute(&emailBody, digest); err != nil {
		return fmt.Errorf("failed to render email template: %v", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.senderEmail)
	m.SetHeader("To", n.recipientEmail)
	m.SetHeader("Subject", fmt.Sprintf("MediaLog Digest: %d items, %d watched",
		digest.TotalItems, digest.WatchedItems))

	plainText := fmt.Sprintf(
		"MediaLog Weekly Digest\n\n"+
			"Library as of %s: %d items, %d watched, %d playlists.\n"+
			"%d recently added, %d recently watched.\n\n"+
			"This is an automated email from MediaLog. Please do not reply.",
		digest.Date, digest.TotalItems, digest.WatchedItems, digest.PlaylistCount,
		len(digest.RecentlyAdded), len(digest.RecentlyWatched))

	m.SetBody("text/plain", plainText)
	m.AddAlternative("text/html", emailBody.String())

	// For Mailtrap, username is "api" and password the API token
	d := gomail.NewDialer(n.smtpHost, n.smtpPort, "api", n.senderPass)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %v", err)
	}

	log.Printf("Digest email sent to %s", n.recipientEmail)
	return nil
}
