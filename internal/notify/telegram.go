// Package notify sends agency notifications to a Telegram chat: one
// message per new lead and a daily digest.
package notify

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	log "github.com/sirupsen/logrus"

	"pixelwerk.nl/backoffice/internal/common"
	"pixelwerk.nl/backoffice/internal/features/leads"
)

// maxDigestLines keeps the digest under Telegram's message size limit.
const maxDigestLines = 30

// Sender is the part of *telego.Bot the notifier uses.
type Sender interface {
	SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error)
}

// Telegram posts to one chat.
type Telegram struct {
	sender Sender
	chatID int64
}

// NewTelegram connects a bot with the given token.
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	bot, err := telego.NewBot(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot aanmaken mislukt: %w", err)
	}
	return NewTelegramWithSender(bot, chatID), nil
}

// NewTelegramWithSender uses an existing sender; tests pass a fake.
func NewTelegramWithSender(sender Sender, chatID int64) *Telegram {
	return &Telegram{sender: sender, chatID: chatID}
}

// NewLead implements leads.Notifier.
func (t *Telegram) NewLead(ctx context.Context, l *leads.Lead) error {
	return t.send(ctx, formatLead(l))
}

// Digest sends the summary of the leads created on day.
func (t *Telegram) Digest(ctx context.Context, day time.Time, items []*leads.Lead) error {
	return t.send(ctx, formatDigest(day, items))
}

func (t *Telegram) send(ctx context.Context, text string) error {
	msg := tu.Message(tu.ID(t.chatID), text).WithParseMode(telego.ModeHTML)
	if _, err := t.sender.SendMessage(ctx, msg); err != nil {
		return fmt.Errorf("telegram bericht versturen mislukt: %w", err)
	}
	log.WithFields(log.Fields{"component": "notify", "chat_id": t.chatID}).Debug("Telegram message sent")
	return nil
}

func formatLead(l *leads.Lead) string {
	var b strings.Builder
	b.WriteString("🆕 <b>Nieuwe lead</b>\n\n")
	line := func(label, v string) {
		if strings.TrimSpace(v) == "" {
			return
		}
		fmt.Fprintf(&b, "<b>%s:</b> %s\n", label, html.EscapeString(v))
	}
	line("Naam", l.Name)
	line("Bedrijf", l.Company)
	line("E-mail", l.Email)
	line("Telefoon", l.Phone)
	line("Dienst", l.Service)
	line("Budget", l.Budget)
	line("Plaats", strings.TrimSpace(l.Postcode+" "+l.City))
	if msg := strings.TrimSpace(l.Message); msg != "" {
		if r := []rune(msg); len(r) > 500 {
			msg = string(r[:500]) + "…"
		}
		fmt.Fprintf(&b, "\n%s\n", html.EscapeString(msg))
	}
	return b.String()
}

func formatDigest(day time.Time, items []*leads.Lead) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 <b>Overzicht %s</b>\n\n", day.In(common.Location()).Format("02-01-2006"))
	if len(items) == 0 {
		b.WriteString("Geen nieuwe leads.")
		return b.String()
	}

	b.WriteString(common.PluralizeLeads(len(items)))
	b.WriteString(":\n")
	for i, l := range items {
		if i == maxDigestLines {
			fmt.Fprintf(&b, "… en nog %d\n", len(items)-maxDigestLines)
			break
		}
		who := l.Name
		if l.Company != "" {
			who += " (" + l.Company + ")"
		}
		fmt.Fprintf(&b, "• %s: %s\n", html.EscapeString(who), html.EscapeString(orDash(l.Service)))
	}
	return b.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
