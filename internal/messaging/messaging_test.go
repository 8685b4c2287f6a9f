package messaging

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/codr1/nailbook/internal/calendar"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"national with area code", "11987654321", "+5511987654321", false},
		{"formatted national", "(11) 98765-4321", "+5511987654321", false},
		{"already e164", "+55 11 98765-4321", "+5511987654321", false},
		{"foreign number keeps its country", "+1 650-253-0000", "+16502530000", false},
		{"empty", "", "", true},
		{"letters", "not a phone", "", true},
		{"too short", "1234", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePhone(tt.input, "BR")
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPhone) {
					t.Fatalf("NormalizePhone(%q) error = %v, want ErrInvalidPhone", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizePhone(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Fatalf("NormalizePhone(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func newTestWhatsApp(t *testing.T) *WhatsApp {
	t.Helper()
	wa, err := NewWhatsApp("Vânia", "(11) 98765-4321", "BR")
	if err != nil {
		t.Fatalf("NewWhatsApp: %v", err)
	}
	return wa
}

func TestWhatsAppDispatch(t *testing.T) {
	wa := newTestWhatsApp(t)
	fact := Fact{
		Date:    calendar.MustParseDate("2025-08-23"),
		Time:    "10:00",
		Name:    "Ana",
		Service: "Manicure",
	}

	out, err := wa.Dispatch(context.Background(), fact)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	wantText := "Olá, Vânia! Gostaria de agendar *Manicure* em *23/08/2025* às *10:00*.\nMeu nome é *Ana*."
	if out.Text != wantText {
		t.Fatalf("text = %q, want %q", out.Text, wantText)
	}
	if !strings.HasPrefix(out.URL, "https://wa.me/5511987654321?text=") {
		t.Fatalf("unexpected url %q", out.URL)
	}
	if strings.Contains(out.URL, "+") {
		t.Fatalf("spaces must be percent-encoded, got %q", out.URL)
	}

	parsed, err := url.Parse(out.URL)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	if got := parsed.Query().Get("text"); got != wantText {
		t.Fatalf("decoded text = %q, want %q", got, wantText)
	}
}

func TestWhatsAppTextOptionalFields(t *testing.T) {
	wa := newTestWhatsApp(t)
	text := wa.Text(Fact{
		Date:    calendar.MustParseDate("2025-08-18"),
		Time:    "18:00",
		Name:    "Bea",
		Service: "Pedicure",
		Phone:   "+5511912345678",
		Notes:   "  unha curta  ",
	})
	if !strings.HasSuffix(text, "\nTelefone: +5511912345678\nObs.: unha curta") {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestNewWhatsAppRejectsBadRecipient(t *testing.T) {
	if _, err := NewWhatsApp("Vânia", "123", "BR"); !errors.Is(err, ErrInvalidPhone) {
		t.Fatalf("expected ErrInvalidPhone, got %v", err)
	}
}

type fakeSender struct {
	recipient string
	subject   string
	body      string
	ctxErr    error
	err       error
}

func (f *fakeSender) Send(ctx context.Context, recipient, subject, body string) error {
	f.recipient, f.subject, f.body = recipient, subject, body
	f.ctxErr = ctx.Err()
	return f.err
}

func TestNotifierSendsCopyAfterCallerCancels(t *testing.T) {
	sender := &fakeSender{}
	done := make(chan error, 1)
	n := NewNotifier(newTestWhatsApp(t), sender, "dona@example.com")
	n.done = done

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := n.Dispatch(ctx, Fact{Date: calendar.MustParseDate("2025-08-23"), Time: "10:00", Name: "Ana", Service: "Manicure"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("notification was not sent")
	}
	if sender.ctxErr != nil {
		t.Fatalf("send context should be detached from caller, got %v", sender.ctxErr)
	}
	if sender.recipient != "dona@example.com" {
		t.Fatalf("recipient = %q", sender.recipient)
	}
	if sender.subject != "Novo agendamento: 23/08/2025 10:00" {
		t.Fatalf("subject = %q", sender.subject)
	}
	if sender.body != out.Text {
		t.Fatalf("body should carry the message text")
	}
}

func TestNotifierSendFailureDoesNotFailDispatch(t *testing.T) {
	sender := &fakeSender{err: errors.New("ses down")}
	done := make(chan error, 1)
	n := NewNotifier(newTestWhatsApp(t), sender, "dona@example.com")
	n.done = done

	if _, err := n.Dispatch(context.Background(), Fact{Date: calendar.MustParseDate("2025-08-23"), Time: "10:00"}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if err := <-done; err == nil {
		t.Fatal("expected the send error to be reported")
	}
}

func TestNotifierWithoutRecipientSkipsEmail(t *testing.T) {
	sender := &fakeSender{}
	n := NewNotifier(newTestWhatsApp(t), sender, "")
	if _, err := n.Dispatch(context.Background(), Fact{Date: calendar.MustParseDate("2025-08-23"), Time: "10:00"}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if sender.recipient != "" {
		t.Fatal("no email expected")
	}
}
