package mail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"fintrack/internal/core"
)

// GmailSender sends mail through the Gmail API on behalf of a configured
// sender address.
type GmailSender struct {
	svc  *gmail.Service
	from string
}

var _ Mailer = (*GmailSender)(nil)

// Credentials holds the OAuth client and token material, inline or as file
// paths. Inline values win when both are set.
type Credentials struct {
	From       string
	ClientJSON string
	ClientFile string
	TokenJSON  string
	TokenFile  string
}

// NewGmailSender builds a Gmail client from OAuth credentials obtained with
// the oauth-init command.
func NewGmailSender(ctx context.Context, creds Credentials) (*GmailSender, error) {
	if creds.From == "" {
		return nil, errors.New("missing sender address")
	}

	clientBytes, err := resolveSecret(creds.ClientJSON, creds.ClientFile)
	if err != nil {
		return nil, fmt.Errorf("oauth client: %w", err)
	}
	tokenBytes, err := resolveSecret(creds.TokenJSON, creds.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("oauth token: %w", err)
	}

	cfg, err := google.ConfigFromJSON(clientBytes, gmail.GmailSendScope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(tokenBytes, &token); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}

	svc, err := gmail.NewService(ctx, option.WithHTTPClient(cfg.Client(ctx, &token)))
	if err != nil {
		return nil, fmt.Errorf("gmail service: %w", err)
	}

	return &GmailSender{svc: svc, from: creds.From}, nil
}

// Send delivers one HTML email. Failures map to core.ErrExternalService.
func (s *GmailSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", s.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	raw := base64.URLEncoding.EncodeToString([]byte(msg.String()))
	_, err := s.svc.Users.Messages.Send("me", &gmail.Message{Raw: raw}).Context(ctx).Do()
	if err != nil {
		slog.ErrorContext(ctx, "Failed to send email", "to", to, "subject", subject, "error", err)
		return fmt.Errorf("%w: send mail", core.ErrExternalService)
	}

	slog.InfoContext(ctx, "Email sent", "to", to, "subject", subject)
	return nil
}

func resolveSecret(inline, file string) ([]byte, error) {
	switch {
	case inline != "":
		return []byte(inline), nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("no inline value or file path provided")
	}
}
