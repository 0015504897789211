package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"net/url"
	"strings"

	"github.com/zaibaki/auth-backend/internal/domain"
)

// SMTPSender envia correos via SMTP.
type SMTPSender struct {
	host     string
	port     int
	username string
	password string
	from     string
	fromName string
	useTLS   bool
	baseURL  string
}

func NewSMTPSender(host string, port int, username, password, from, fromName string, useTLS bool, baseURL string) (*SMTPSender, error) {
	if strings.TrimSpace(host) == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if strings.TrimSpace(from) == "" {
		return nil, fmt.Errorf("smtp from is required")
	}
	if port == 0 {
		port = 587
	}
	return &SMTPSender{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		fromName: fromName,
		useTLS:   useTLS,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}, nil
}

func (s *SMTPSender) SendVerification(_ context.Context, user domain.User, token string) error {
	verifyURL := fmt.Sprintf("%s/auth/verify-email?token=%s", s.baseURL, url.QueryEscape(token))
	body := fmt.Sprintf(
		"Hi %s,\n\nPlease verify your email address by visiting the link below:\n\n%s\n\nThe link expires in 24 hours. If you did not create an account, ignore this message.\n",
		displayName(user),
		verifyURL,
	)
	return s.send(user.Email, "Verify your email address", body)
}

func (s *SMTPSender) SendWelcome(_ context.Context, user domain.User) error {
	body := fmt.Sprintf(
		"Hi %s,\n\nYour email address has been verified and your account is now active.\n\nWelcome aboard!\n",
		displayName(user),
	)
	return s.send(user.Email, "Welcome!", body)
}

func (s *SMTPSender) SendPasswordReset(_ context.Context, user domain.User, token string) error {
	resetURL := fmt.Sprintf("%s/reset-password?token=%s", s.baseURL, url.QueryEscape(token))
	body := fmt.Sprintf(
		"Hi %s,\n\nWe received a request to reset your password. Use the link below:\n\n%s\n\nIf you did not request this, ignore this message.\n",
		displayName(user),
		resetURL,
	)
	return s.send(user.Email, "Password reset", body)
}

func (s *SMTPSender) send(toEmail, subject, body string) error {
	if strings.TrimSpace(toEmail) == "" {
		return fmt.Errorf("to email is required")
	}

	msg := buildMessage(s.from, s.fromName, toEmail, subject, body)
	addr := fmt.Sprintf("%s:%d", s.host, s.port)

	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}

	if s.useTLS {
		conn, err := tls.Dial("tcp", addr, &tls.Config{
			ServerName: s.host,
		})
		if err != nil {
			return err
		}
		defer conn.Close()

		client, err := smtp.NewClient(conn, s.host)
		if err != nil {
			return err
		}
		defer client.Quit()

		if auth != nil {
			if err := client.Auth(auth); err != nil {
				return err
			}
		}
		if err := client.Mail(s.from); err != nil {
			return err
		}
		if err := client.Rcpt(toEmail); err != nil {
			return err
		}
		writer, err := client.Data()
		if err != nil {
			return err
		}
		if _, err := writer.Write([]byte(msg)); err != nil {
			_ = writer.Close()
			return err
		}
		return writer.Close()
	}

	return smtp.SendMail(addr, auth, s.from, []string{toEmail}, []byte(msg))
}

func displayName(user domain.User) string {
	name := strings.TrimSpace(user.FirstName)
	if name == "" {
		return "there"
	}
	return name
}

func buildMessage(from, fromName, to, subject, body string) string {
	fromHeader := from
	if strings.TrimSpace(fromName) != "" {
		fromHeader = fmt.Sprintf("%s <%s>", fromName, from)
	}

	headers := []string{
		fmt.Sprintf("From: %s", fromHeader),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
	}

	return strings.Join(headers, "\r\n") + "\r\n\r\n" + body
}
