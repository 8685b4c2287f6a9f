// Package messaging hands a confirmed booking over to the provider: a
// WhatsApp deep link the visitor opens, and an optional e-mail copy.
package messaging

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/codr1/nailbook/internal/calendar"
)

// Fact is the structured booking handed to a Dispatcher.
type Fact struct {
	Date    calendar.Date
	Time    calendar.TimeOfDay
	Name    string
	Service string
	Phone   string
	Notes   string
}

// Dispatch is the opaque hand-off returned to the visitor.
type Dispatch struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}

type Dispatcher interface {
	Dispatch(ctx context.Context, fact Fact) (Dispatch, error)
}

// WhatsApp builds wa.me links addressed to the provider.
type WhatsApp struct {
	provider  string
	recipient string
}

// NewWhatsApp validates the provider's phone and returns a link builder.
func NewWhatsApp(providerName, recipientPhone, region string) (*WhatsApp, error) {
	e164, err := NormalizePhone(recipientPhone, region)
	if err != nil {
		return nil, fmt.Errorf("whatsapp recipient %q: %w", recipientPhone, err)
	}
	return &WhatsApp{provider: strings.TrimSpace(providerName), recipient: Digits(e164)}, nil
}

func (w *WhatsApp) Dispatch(ctx context.Context, fact Fact) (Dispatch, error) {
	text := w.Text(fact)
	return Dispatch{URL: w.Link(text), Text: text}, nil
}

// Text renders the pt-BR booking message.
func (w *WhatsApp) Text(fact Fact) string {
	var b strings.Builder
	if w.provider != "" {
		fmt.Fprintf(&b, "Olá, %s! ", w.provider)
	} else {
		b.WriteString("Olá! ")
	}
	fmt.Fprintf(&b, "Gostaria de agendar *%s* em *%s* às *%s*.\n", fact.Service, fact.Date.Label(), fact.Time)
	fmt.Fprintf(&b, "Meu nome é *%s*.", fact.Name)
	if fact.Phone != "" {
		fmt.Fprintf(&b, "\nTelefone: %s", fact.Phone)
	}
	if notes := strings.TrimSpace(fact.Notes); notes != "" {
		fmt.Fprintf(&b, "\nObs.: %s", notes)
	}
	return b.String()
}

func (w *WhatsApp) Link(text string) string {
	escaped := strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
	return fmt.Sprintf("https://wa.me/%s?text=%s", w.recipient, escaped)
}
