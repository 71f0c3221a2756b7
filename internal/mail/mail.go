// Package mail sends order confirmations through SendGrid.
package mail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"suvai/internal/cache"
	"suvai/internal/config"
	"suvai/internal/orders"
)

const mailSentPrefix = "mail_sent/"

type client interface {
	Send(email *sgmail.SGMailV3) (*rest.Response, error)
}

type mailSentClaim struct {
	OrderID string `json:"order_id"`
	To      string `json:"to"`
}

type mailer struct {
	cache  cache.Cache
	client client
	from   *sgmail.Email
}

var _ orders.Notifier = (*mailer)(nil)

// New returns a SendGrid mailer, or one that only logs when no API key is set.
func New(cfg config.SendGridConfig, c cache.Cache) *mailer {
	var cl client = logClient{}
	if cfg.APIKey != "" {
		cl = sendgrid.NewSendClient(cfg.APIKey)
	}
	return &mailer{
		cache:  c,
		client: cl,
		from:   sgmail.NewEmail("Suvai Chaalai", cfg.From),
	}
}

var confirmation = template.Must(template.New("order").Parse(`<h2>Thanks for your order!</h2>
<p>Order <b>{{.ID}}</b> will be delivered to {{.DeliveryAddress}}.</p>
<ul>{{range .Items}}<li>{{.Quantity}} x {{.RecipeName}} ({{.Type}}) ₹{{.Price.StringFixed 2}}</li>{{end}}</ul>
{{if .CouponCode}}<p>Coupon {{.CouponCode}} saved you ₹{{.DiscountAmount.StringFixed 2}}.</p>{{end}}
<p>Total due: <b>₹{{.FinalAmount.StringFixed 2}}</b> ({{.PaymentMethod}})</p>`))

// OrderPlaced mails a confirmation once per order. A claim is recorded only
// after SendGrid accepts the message.
func (m *mailer) OrderPlaced(ctx context.Context, to string, o orders.Order) error {
	sent, err := m.cache.Exists(ctx, mailSentPrefix+o.ID)
	if err != nil {
		return fmt.Errorf("check mail claim: %w", err)
	}
	if sent {
		slog.InfoContext(ctx, "order confirmation already sent", "order_id", o.ID)
		return nil
	}

	var html bytes.Buffer
	if err := confirmation.Execute(&html, o); err != nil {
		return fmt.Errorf("render confirmation: %w", err)
	}
	plain := fmt.Sprintf("Order %s placed. Total due ₹%s.", o.ID, o.FinalAmount.StringFixed(2))
	message := sgmail.NewSingleEmail(m.from, "Your Suvai Chaalai order "+o.ID, sgmail.NewEmail("", to), plain, html.String())

	response, err := m.client.Send(message)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("sendgrid send failed: status=%d body=%s", response.StatusCode, response.Body)
	}
	slog.InfoContext(ctx, "order confirmation sent", "order_id", o.ID, "status", response.StatusCode)

	err = cache.PutJSON(ctx, m.cache, mailSentPrefix+o.ID, mailSentClaim{OrderID: o.ID, To: to}, cache.IfNoneMatch())
	if err != nil && !errors.Is(err, cache.ErrAlreadyExists) {
		return fmt.Errorf("record mail claim: %w", err)
	}
	return nil
}

type logClient struct{}

func (logClient) Send(email *sgmail.SGMailV3) (*rest.Response, error) {
	slog.Info("sendgrid disabled, not sending", "subject", email.Subject)
	return &rest.Response{StatusCode: 202, Body: "logged"}, nil
}
