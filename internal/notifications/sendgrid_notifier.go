package notifications

import (
	"context"
	"fmt"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"golang.org/x/time/rate"
)

const (
	newsletterSubject = "Welcome to the BitMine Robotics newsletter"
	newsletterText    = "Thanks for subscribing. We will keep you posted on new kits and services."
	newsletterHTML    = "<strong>Thanks for subscribing.</strong> We will keep you posted on new kits and services."
)

type mailSender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGridNotifier mails the welcome through SendGrid. Sends are paced by a
// token bucket so a burst of signups cannot exhaust the account quota.
type SendGridNotifier struct {
	client  mailSender
	from    *mail.Email
	limiter *rate.Limiter
}

func NewSendGridNotifier(apiKey, from string, perSecond float64, burst int) *SendGridNotifier {
	return newSendGridNotifier(sendgrid.NewSendClient(apiKey), from, perSecond, burst)
}

func newSendGridNotifier(client mailSender, from string, perSecond float64, burst int) *SendGridNotifier {
	if perSecond <= 0 {
		perSecond = 5
	}
	if burst <= 0 {
		burst = 1
	}

	return &SendGridNotifier{
		client:  client,
		from:    mail.NewEmail("BitMine Robotics", from),
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

func (n *SendGridNotifier) SendNewsletterWelcome(ctx context.Context, in NewsletterSignup) error {
	if err := n.limiter.Wait(ctx); err != nil {
		return err
	}

	to := mail.NewEmail("", in.Email)
	message := mail.NewSingleEmail(n.from, newsletterSubject, to, newsletterText, newsletterHTML)

	resp, err := n.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}

	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid send: unexpected status %d", resp.StatusCode)
	}
	return nil
}
