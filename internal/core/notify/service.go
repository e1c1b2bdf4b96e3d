// Package notify composes and sends the brand-links notification mail.
package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"sort"
	"strings"

	"inventory/internal/config"
	"inventory/internal/logger"
	"inventory/internal/utils/htmltext"

	"github.com/jordan-wright/email"
)

const (
	Subject    = "Brand Inventory Drive Links"
	senderName = "Brand Inventory Bot"
)

// SendError wraps a mail transport failure. There is no retry; the caller
// decides how to surface it.
type SendError struct{ Err error }

func (e *SendError) Error() string { return fmt.Sprintf("send notification: %v", e.Err) }

func (e *SendError) Unwrap() error { return e.Err }

type Service struct {
	config config.Config
	log    *logger.Logger
}

func NewService(cfg config.Config) *Service {
	return &Service{config: cfg, log: logger.New("NotifyService")}
}

// ParseRecipients splits a comma or semicolon separated address string.
func ParseRecipients(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' })
}

// Normalize trims, drops empties and deduplicates case-insensitively,
// preserving first-seen order.
func Normalize(recipients []string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, r := range recipients {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		key := strings.ToLower(r)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}

// Compose renders the HTML body listing each brand and its folder link,
// brands in sorted order.
func Compose(links map[string]string) string {
	brands := make([]string, 0, len(links))
	for b := range links {
		brands = append(brands, b)
	}
	sort.Strings(brands)

	var sb strings.Builder
	sb.WriteString("<html><body><p>Hello,</p>")
	for _, b := range brands {
		fmt.Fprintf(&sb, "<h3>%s</h3><p><a href='%s'>%s</a></p>", b, links[b], links[b])
	}
	sb.WriteString("<p>– Brand Inventory Bot</p></body></html>")
	return sb.String()
}

// Send delivers one message carrying every brand link to all recipients.
func (s *Service) Send(ctx context.Context, subject string, links map[string]string, recipients []string) error {
	to := Normalize(recipients)
	if len(to) == 0 {
		return &SendError{Err: fmt.Errorf("no recipients")}
	}

	html := Compose(links)

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("%s <%s>", senderName, s.config.EmailFrom)
	mail.To = to
	mail.Subject = subject
	mail.HTML = []byte(html)
	mail.Text = []byte(htmltext.Render(html))

	addr := fmt.Sprintf("%s:%d", s.config.SMTPHost, s.config.SMTPPort)
	err := mail.Send(addr, smtp.PlainAuth("", s.config.SMTPUsername, s.config.SMTPPassword, s.config.SMTPHost))
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		return &SendError{Err: err}
	}
	s.log.LogSuccessf("notification %q sent to %d recipients", subject, len(to))
	return nil
}
