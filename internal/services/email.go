package services

import (
	"context"
	"fmt"
	"html"
	"log"
	"net/smtp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

const sesSendTimeout = 10 * time.Second

// sesAPI is the subset of the SES v2 client used for delivery.
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

type EmailService struct {
	ses         sesAPI
	host        string
	port        string
	user        string
	pass        string
	from        string
	frontendURL string
	devMode     bool
}

func NewEmailService(host, port, user, pass, from, frontendURL string) *EmailService {
	devMode := host == "" || user == ""
	if devMode {
		log.Println("⚠ Email service running in DEV MODE (logging to console)")
	}
	return &EmailService{
		host:        host,
		port:        port,
		user:        user,
		pass:        pass,
		from:        from,
		frontendURL: frontendURL,
		devMode:     devMode,
	}
}

// NewSESEmailService delivers through Amazon SES using the default AWS
// credential chain for the given region.
func NewSESEmailService(ctx context.Context, region, from, frontendURL string) (*EmailService, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &EmailService{
		ses:         sesv2.NewFromConfig(awsCfg),
		from:        from,
		frontendURL: frontendURL,
	}, nil
}

// SendMilestoneEmail congratulates a user on newly unlocked rewards.
func (s *EmailService) SendMilestoneEmail(to, username string, streak int, rewards []string) error {
	if len(rewards) == 0 {
		return nil
	}
	dashboardURL := fmt.Sprintf("%s/dashboard", s.frontendURL)

	var items strings.Builder
	for _, r := range rewards {
		fmt.Fprintf(&items, `<li style="margin: 0 0 8px;">%s</li>`, html.EscapeString(r))
	}

	subject := fmt.Sprintf("You're on a %d-day study streak!", streak)
	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: 'Segoe UI', Arial, sans-serif; margin: 0; padding: 0; background-color: #f8fafc;">
  <div style="max-width: 480px; margin: 40px auto; background: white; border-radius: 12px; overflow: hidden;">
    <div style="background: #16a34a; padding: 32px; text-align: center;">
      <h1 style="color: white; margin: 0; font-size: 24px;">StudyStreak</h1>
    </div>
    <div style="padding: 32px;">
      <h2 style="margin: 0 0 16px; font-size: 20px; color: #1e293b;">Nice work, %s!</h2>
      <p style="color: #64748b; font-size: 14px; line-height: 1.6;">You've studied %d days in a row and unlocked:</p>
      <ul style="color: #1e293b; font-size: 14px; padding-left: 20px;">%s</ul>
      <a href="%s" style="display: inline-block; background: #16a34a; color: white; text-decoration: none; padding: 12px 32px; border-radius: 8px; font-weight: 600;">
        Open dashboard
      </a>
    </div>
  </div>
</body>
</html>`, html.EscapeString(username), streak, items.String(), dashboardURL)

	return s.sendHTML(to, subject, body)
}

func (s *EmailService) sendHTML(to, subject, htmlBody string) error {
	if s.devMode {
		log.Printf("📧 [DEV EMAIL] To: %s | Subject: %s", to, subject)
		return nil
	}
	if s.ses != nil {
		return s.sendSES(to, subject, htmlBody)
	}

	headers := []string{
		fmt.Sprintf("From: %s", s.from),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=UTF-8",
	}

	message := strings.Join(headers, "\r\n") + "\r\n\r\n" + htmlBody

	auth := smtp.PlainAuth("", s.user, s.pass, s.host)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)

	err := smtp.SendMail(addr, auth, s.from, []string{to}, []byte(message))
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}

	log.Printf("📧 Email sent to %s: %s", to, subject)
	return nil
}

func (s *EmailService) sendSES(to, subject, htmlBody string) error {
	ctx, cancel := context.WithTimeout(context.Background(), sesSendTimeout)
	defer cancel()

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	if _, err := s.ses.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}

	log.Printf("📧 Email sent via SES to %s: %s", to, subject)
	return nil
}
