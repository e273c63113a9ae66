package notifications

import "context"

type NewsletterSignup struct {
	Email string
}

// Notifier delivers the newsletter welcome. Nothing about a signup is stored;
// the notifier is the only place it goes.
type Notifier interface {
	SendNewsletterWelcome(ctx context.Context, in NewsletterSignup) error
}
