package services

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/mailgun/mailgun-go/v4"
	"github.com/username/pettyvault/src/config"
	"github.com/username/pettyvault/src/logger"
)

type EmailService interface {
	SendInviteEmail(toEmail, companyName, role, token string) error
	SendPasswordResetEmail(toEmail, name, token string) error
}

func NewEmailService() EmailService {
	if config.Cfg == nil {
		logger.L.Error("Configuration is nil. Email service will default to mock.")
		return &MockEmailService{}
	}

	provider := strings.ToLower(config.Cfg.EmailServiceProvider)
	logger.L.Info("Initializing email service", "provider", provider)

	switch provider {
	case "mailgun":
		if config.Cfg.MailgunDomain == "" || config.Cfg.MailgunPrivateAPIKey == "" || config.Cfg.SenderEmail == "" {
			logger.L.Warn("Mailgun configuration incomplete. Falling back to MockEmailService.")
			return &MockEmailService{}
		}
		mg := mailgun.NewMailgun(config.Cfg.MailgunDomain, config.Cfg.MailgunPrivateAPIKey)
		logger.L.Info("Mailgun client initialized", "domain", config.Cfg.MailgunDomain)
		return &MailgunEmailService{
			mg:          mg,
			senderEmail: config.Cfg.SenderEmail,
			senderName:  config.Cfg.SenderName,
		}
	case "smtp":
		if config.Cfg.SMTPServer == "" || config.Cfg.SMTPUser == "" || config.Cfg.SMTPPassword == "" || config.Cfg.SenderEmail == "" {
			logger.L.Warn("SMTP configuration incomplete. Falling back to MockEmailService.")
			return &MockEmailService{}
		}
		return &SMTPEmailService{
			SMTPServer:   config.Cfg.SMTPServer,
			SMTPPort:     config.Cfg.SMTPPort,
			SMTPUser:     config.Cfg.SMTPUser,
			SMTPPassword: config.Cfg.SMTPPassword,
			SenderEmail:  config.Cfg.SenderEmail,
		}
	default:
		logger.L.Info("Defaulting to MockEmailService.")
		return &MockEmailService{}
	}
}

type MailgunEmailService struct {
	mg          mailgun.Mailgun
	senderEmail string
	senderName  string
}

func (s *MailgunEmailService) SendInviteEmail(toEmail, companyName, role, token string) error {
	from := fmt.Sprintf("%s <%s>", s.senderName, s.senderEmail)
	subject := fmt.Sprintf("You have been invited to %s on PettyVault", companyName)
	inviteLink := fmt.Sprintf("%s?invite=%s", config.Cfg.InviteBaseURL, token)

	plainTextBody := fmt.Sprintf(`Hi,

You have been invited to join %s on PettyVault as %s.
Use the link below to create your account and join:
%s

This invite expires in %s.

Thanks,
The PettyVault Team`, companyName, role, inviteLink, config.Cfg.InviteTokenExpiry.String())

	htmlBody := fmt.Sprintf(`
	<html>
		<body style="font-family: Arial, sans-serif; line-height: 1.6;">
			<p>Hi,</p>
			<p>You have been invited to join <b>%s</b> on PettyVault as <b>%s</b>.</p>
			<p><a href="%s" target="_blank" style="color: #1a73e8; text-decoration: none; font-weight: bold; padding: 10px 15px; border: 1px solid #1a73e8; border-radius: 4px; background-color: #e8f0fe;">Accept Invite</a></p>
			<p>If the button above doesn't work, copy and paste this link into your browser:</p>
			<p><a href="%s" target="_blank" style="color: #1a73e8;">%s</a></p>
			<p>This invite expires in %s.</p>
			<p>Thanks,<br>The PettyVault Team</p>
		</body>
	</html>`, companyName, role, inviteLink, inviteLink, inviteLink, config.Cfg.InviteTokenExpiry.String())

	message := s.mg.NewMessage(from, subject, plainTextBody, toEmail)
	message.SetHtml(htmlBody)
	message.AddTag("invite")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*20)
	defer cancel()
	resp, id, err := s.mg.Send(ctx, message)
	if err != nil {
		logger.L.Error("Failed to send invite email via Mailgun", "error", err, "to", toEmail, "mailgunResp", resp, "mailgunId", id)
		return fmt.Errorf("mailgun send failed: %w", err)
	}
	logger.L.Info("Invite email sent via Mailgun", "to", toEmail, "id", id)
	return nil
}

func (s *MailgunEmailService) SendPasswordResetEmail(toEmail, name, token string) error {
	from := fmt.Sprintf("%s <%s>", s.senderName, s.senderEmail)
	subject := "Password Reset Request for PettyVault"
	resetLink := fmt.Sprintf("%s?token=%s", config.Cfg.PasswordResetBaseURL, token)

	plainTextBody := fmt.Sprintf(`Hi %s,

You requested a password reset for your PettyVault account.
Please click the following link to reset your password:
%s

If you did not request a password reset, please ignore this email. This link will expire in %s.

Thanks,
The PettyVault Team`, name, resetLink, config.Cfg.PasswordResetTokenExpiry.String())

	htmlBody := fmt.Sprintf(`
	<html>
		<body style="font-family: Arial, sans-serif; line-height: 1.6;">
			<p>Hi %s,</p>
			<p>You requested a password reset for your PettyVault account. Please click the button below to reset your password:</p>
			<p><a href="%s" target="_blank" style="color: #1a73e8; text-decoration: none; font-weight: bold; padding: 10px 15px; border: 1px solid #1a73e8; border-radius: 4px; background-color: #e8f0fe;">Reset Password</a></p>
			<p>If you did not request this reset, please ignore this email. This link will expire in %s.</p>
			<p>Thanks,<br>The PettyVault Team</p>
		</body>
	</html>`, name, resetLink, config.Cfg.PasswordResetTokenExpiry.String())

	message := s.mg.NewMessage(from, subject, plainTextBody, toEmail)
	message.SetHtml(htmlBody)
	message.AddTag("password-reset")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*20)
	defer cancel()
	resp, id, err := s.mg.Send(ctx, message)
	if err != nil {
		logger.L.Error("Failed to send password reset email via Mailgun", "error", err, "to", toEmail, "mailgunResp", resp, "mailgunId", id)
		return fmt.Errorf("mailgun send failed for password reset: %w", err)
	}
	logger.L.Info("Password reset email sent via Mailgun", "to", toEmail, "id", id)
	return nil
}

type SMTPEmailService struct {
	SMTPServer   string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SenderEmail  string
}

func (s *SMTPEmailService) send(toEmail, subject, body string) error {
	header := map[string]string{
		"From":         s.SenderEmail,
		"To":           toEmail,
		"Subject":      subject,
		"MIME-version": "1.0",
		"Content-Type": "text/plain; charset=\"UTF-8\"",
	}
	message := ""
	for k, v := range header {
		message += fmt.Sprintf("%s: %s\r\n", k, v)
	}
	message += "\r\n" + body

	auth := smtp.PlainAuth("", s.SMTPUser, s.SMTPPassword, s.SMTPServer)
	addr := fmt.Sprintf("%s:%d", s.SMTPServer, s.SMTPPort)
	return smtp.SendMail(addr, auth, s.SenderEmail, []string{toEmail}, []byte(message))
}

func (s *SMTPEmailService) SendInviteEmail(toEmail, companyName, role, token string) error {
	inviteLink := fmt.Sprintf("%s?invite=%s", config.Cfg.InviteBaseURL, token)
	body := fmt.Sprintf("Hi,\n\nYou have been invited to join %s on PettyVault as %s.\nAccept here: %s\n\nThanks,\nThe PettyVault Team", companyName, role, inviteLink)
	if err := s.send(toEmail, fmt.Sprintf("You have been invited to %s on PettyVault", companyName), body); err != nil {
		logger.L.Error("Failed to send invite email via SMTP", "error", err, "to", toEmail)
		return fmt.Errorf("failed to send invite email via SMTP: %w", err)
	}
	logger.L.Info("Invite email sent via SMTP", "to", toEmail)
	return nil
}

func (s *SMTPEmailService) SendPasswordResetEmail(toEmail, name, token string) error {
	resetLink := fmt.Sprintf("%s?token=%s", config.Cfg.PasswordResetBaseURL, token)
	body := fmt.Sprintf("Hi %s,\n\nYou requested a password reset for your PettyVault account.\nReset here: %s\n\nThis link expires in %s.\n\nThanks,\nThe PettyVault Team", name, resetLink, config.Cfg.PasswordResetTokenExpiry.String())
	if err := s.send(toEmail, "Password Reset Request for PettyVault", body); err != nil {
		logger.L.Error("Failed to send password reset email via SMTP", "error", err, "to", toEmail)
		return fmt.Errorf("failed to send password reset email via SMTP: %w", err)
	}
	logger.L.Info("Password reset email sent via SMTP", "to", toEmail)
	return nil
}

type MockEmailService struct{}

func (m *MockEmailService) SendInviteEmail(toEmail, companyName, role, token string) error {
	logger.L.Info("MockEmailService: would send invite email.",
		"to", toEmail, "company", companyName, "role", role, "token", token)
	return nil
}

func (m *MockEmailService) SendPasswordResetEmail(toEmail, name, token string) error {
	logger.L.Info("MockEmailService: would send password reset email.",
		"to", toEmail, "name", name, "token", token)
	return nil
}
