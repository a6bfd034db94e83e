package email

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net"
	"net/smtp"

	"offrecord/internal/config"
)

// Service handles email operations
type Service struct {
	config *config.EmailConfig
}

// NewService creates a new email service
func NewService(cfg *config.EmailConfig) *Service {
	return &Service{
		config: cfg,
	}
}

// SendInvitation mails a member their one-time invitation code
func (s *Service) SendInvitation(to, displayName, groupName, code string) error {
	subject := fmt.Sprintf("You have been invited to \"%s\" - OffRecord", groupName)

	body := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Group Invitation</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #4a90e2;">Hi %s,</h2>
        <p>You have been invited to join the feedback group <strong>%s</strong> on OffRecord.</p>
        <p>Your one-time invitation code:</p>
        <div style="text-align: center; margin: 30px 0;">
            <span style="font-family: monospace; font-size: 28px; letter-spacing: 6px; background-color: #f4f6f8; padding: 12px 24px; border-radius: 5px;">%s</span>
        </div>
        <p>Open the link below, sign in (or create an account) with this email address and enter the code:</p>
        <p style="word-break: break-all; color: #4a90e2;">%s</p>
        <p>The code works exactly once and only together with this email address.</p>
        <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
        <p style="color: #999; font-size: 12px;">This is an automated email. Please do not reply.</p>
    </div>
</body>
</html>
`, html.EscapeString(displayName), html.EscapeString(groupName), code, s.config.RedeemURL)

	return s.sendEmail(to, subject, body)
}

// SendGroupComplete notifies a member that every round is in and their
// report is ready
func (s *Service) SendGroupComplete(to, displayName, groupName string) error {
	subject := fmt.Sprintf("Your feedback for \"%s\" is ready - OffRecord", groupName)

	body := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Feedback Ready</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #4a90e2;">Hi %s,</h2>
        <p>Everyone in <strong>%s</strong> has submitted their feedback.</p>
        <p>Your personal, anonymized feedback report is now available in OffRecord.</p>
        <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
        <p style="color: #999; font-size: 12px;">This is an automated email. Please do not reply.</p>
    </div>
</body>
</html>
`, html.EscapeString(displayName), html.EscapeString(groupName))

	return s.sendEmail(to, subject, body)
}

// SendReminder nudges a member who has not yet submitted their round
func (s *Service) SendReminder(to, displayName, groupName string) error {
	subject := fmt.Sprintf("Reminder: feedback for \"%s\" is still open - OffRecord", groupName)

	body := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Feedback Reminder</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #4a90e2;">Hi %s,</h2>
        <p>The group <strong>%s</strong> is still waiting for your feedback round.</p>
        <p>Nobody can read their report until every member has submitted, so please take a few minutes to fill in yours.</p>
        <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
        <p style="color: #999; font-size: 12px;">This is an automated email. Please do not reply.</p>
    </div>
</body>
</html>
`, html.EscapeString(displayName), html.EscapeString(groupName))

	return s.sendEmail(to, subject, body)
}

// sendEmail sends an email using SMTP
func (s *Service) sendEmail(to, subject, body string) error {
	headers := make(map[string]string)
	headers["From"] = s.config.SMTPFrom
	headers["To"] = to
	headers["Subject"] = subject
	headers["MIME-Version"] = "1.0"
	headers["Content-Type"] = "text/html; charset=UTF-8"

	var message bytes.Buffer
	for k, v := range headers {
		message.WriteString(fmt.Sprintf("%s: %s\r\n", k, v))
	}
	message.WriteString("\r\n")
	message.WriteString(body)

	addr := net.JoinHostPort(s.config.SMTPHost, s.config.SMTPPort)
	slog.Debug("connecting to SMTP server", "address", addr)

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		slog.Error("failed to connect to SMTP server", "address", addr, "error", err)
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer func(conn net.Conn) {
		if err := conn.Close(); err != nil {
			slog.Error("failed to close SMTP connection", "error", err)
		}
	}(conn)

	client, err := smtp.NewClient(conn, s.config.SMTPHost)
	if err != nil {
		slog.Error("failed to create SMTP client", "error", err)
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer func(client *smtp.Client) {
		if err := client.Close(); err != nil {
			slog.Error("failed to close SMTP client", "error", err)
		}
	}(client)

	// No auth for development relays such as Mailpit
	if s.config.SMTPUsername != "" && s.config.SMTPPassword != "" {
		auth := smtp.PlainAuth("", s.config.SMTPUsername, s.config.SMTPPassword, s.config.SMTPHost)
		_ = client.Auth(auth)
	}

	if err := client.Mail(s.config.SMTPFrom); err != nil {
		slog.Error("failed to set sender", "from", s.config.SMTPFrom, "error", err)
		return fmt.Errorf("failed to set sender: %w", err)
	}

	if err := client.Rcpt(to); err != nil {
		slog.Error("failed to set recipient", "to", to, "error", err)
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	wc, err := client.Data()
	if err != nil {
		slog.Error("failed to initiate data transfer", "error", err)
		return fmt.Errorf("failed to initiate data transfer: %w", err)
	}
	defer func(wc io.WriteCloser) {
		if err := wc.Close(); err != nil {
			slog.Error("failed to close message writer", "error", err)
		}
	}(wc)

	if _, err := wc.Write(message.Bytes()); err != nil {
		slog.Error("failed to write message", "error", err)
		return fmt.Errorf("failed to write message: %w", err)
	}

	slog.Info("email sent", "to", to)
	return nil
}
