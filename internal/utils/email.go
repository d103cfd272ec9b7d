package utils

import (
	"bytes"
	"context"
	"errors"

	"agromarket_back_end/internal/config"
	"agromarket_back_end/internal/models"

	"github.com/wneessen/go-mail"
)

var ErrMailDisabled = errors.New("smtp is not configured")

// Mailer sends HTML mail through the configured SMTP relay.
type Mailer struct {
	cfg config.SMTPConfig
}

func NewMailer(cfg config.SMTPConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

func (m *Mailer) Enabled() bool {
	return m != nil && m.cfg.Host != ""
}

// Attachment is an in-memory file added to a message.
type Attachment struct {
	Name string
	Data []byte
}

// BuildMessage assembles a message without sending it.
func (m *Mailer) BuildMessage(to, subject, htmlBody string, attachments ...Attachment) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return nil, err
	}
	if err := msg.To(to); err != nil {
		return nil, err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)
	for _, a := range attachments {
		if len(a.Data) == 0 {
			continue
		}
		if err := msg.AttachReader(a.Name, bytes.NewReader(a.Data)); err != nil {
			return nil, err
		}
	}
	return msg, nil
}

func (m *Mailer) Send(ctx context.Context, to, subject, htmlBody string, attachments ...Attachment) error {
	if !m.Enabled() {
		return ErrMailDisabled
	}
	msg, err := m.BuildMessage(to, subject, htmlBody, attachments...)
	if err != nil {
		return err
	}

	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthLogin),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password))
	}
	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return err
	}
	return client.DialAndSendWithContext(ctx, msg)
}

// SendOrderConfirmation mails the order summary, attaching the invoice PDF
// when one was rendered.
func (m *Mailer) SendOrderConfirmation(ctx context.Context, to string, o models.Order, invoicePDF []byte) error {
	body, err := OrderConfirmationHTML(o)
	if err != nil {
		return err
	}
	var attachments []Attachment
	if len(invoicePDF) > 0 {
		attachments = append(attachments, Attachment{Name: "invoice-" + o.ID + ".pdf", Data: invoicePDF})
	}
	return m.Send(ctx, to, "Your AgroMarket order "+o.ID, body, attachments...)
}

func (m *Mailer) SendWelcome(ctx context.Context, u models.User) error {
	body, err := WelcomeHTML(u)
	if err != nil {
		return err
	}
	return m.Send(ctx, u.Email, "Welcome to AgroMarket", body)
}
