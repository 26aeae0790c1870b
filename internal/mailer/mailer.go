package mailer

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// Mailer sends account emails through the Gmail API using the application's
// own mailbox. Content is rendered here; callers only pick which mail to send.
type Mailer struct {
	clientID     string
	clientSecret string
	refreshToken string
	sender       string
	appName      string
	frontendURL  string
}

func New(clientID, clientSecret, refreshToken, sender, appName, frontendURL string) *Mailer {
	return &Mailer{
		clientID:     clientID,
		clientSecret: clientSecret,
		refreshToken: refreshToken,
		sender:       sender,
		appName:      appName,
		frontendURL:  frontendURL,
	}
}

// SendVerificationEmail mails the account a verification link.
func (m *Mailer) SendVerificationEmail(ctx context.Context, to, verificationToken, userName string) error {
	verificationURL := fmt.Sprintf("%s/verify-email?token=%s", m.frontendURL, verificationToken)
	html := verificationEmailBody(m.appName, userName, verificationURL)
	return m.send(ctx, to, "Verify Your Email Address", html)
}

// SendPasswordResetEmail mails the account a password-reset link. The token
// in the link is the plain secret; only its digest is stored server-side.
func (m *Mailer) SendPasswordResetEmail(ctx context.Context, to, resetToken, userName string) error {
	resetURL := fmt.Sprintf("%s/password-confirm?token=%s", m.frontendURL, resetToken)
	html := passwordResetEmailBody(userName, resetURL)
	return m.send(ctx, to, "Reset Your Password", html)
}

// SendOtpEmail mails a one-time passcode.
func (m *Mailer) SendOtpEmail(ctx context.Context, to, otp string) error {
	html := otpEmailBody(otp)
	subject := fmt.Sprintf("Verification OTP from %s", m.appName)
	return m.send(ctx, to, subject, html)
}

func (m *Mailer) send(ctx context.Context, to, subject, html string) error {
	config := &oauth2.Config{
		ClientID:     m.clientID,
		ClientSecret: m.clientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL: "https://oauth2.googleapis.com/token",
		},
	}
	tokenSource := config.TokenSource(ctx, &oauth2.Token{RefreshToken: m.refreshToken})

	gmailService, err := gmail.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return fmt.Errorf("failed to create Gmail service: %w", err)
	}

	raw := m.buildMessage(to, subject, html)
	msg := &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString([]byte(raw)),
	}

	if _, err := gmailService.Users.Messages.Send("me", msg).Do(); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	log.Printf("Sent %q email to %s", subject, to)
	return nil
}

func (m *Mailer) buildMessage(to, subject, html string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %q <%s>\r\n", m.appName, m.sender)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(html)
	return b.String()
}
