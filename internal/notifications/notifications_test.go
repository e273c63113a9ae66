package notifications

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNotifier struct {
	err   error
	calls int
}

func (f *fakeNotifier) SendNewsletterWelcome(_ context.Context, _ NewsletterSignup) error {
	f.calls++
	return f.err
}

func TestLogNotifier_LogsEmail(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewJSONHandler(&buf, nil)))

	require.NoError(t, n.SendNewsletterWelcome(context.Background(), NewsletterSignup{Email: "a@b.co"}))
	assert.Contains(t, buf.String(), `"email":"a@b.co"`)
	assert.Contains(t, buf.String(), "newsletter.signup")
}

func TestProtectedNotifier_OpensAfterThreshold(t *testing.T) {
	inner := &fakeNotifier{err: errors.New("provider down")}
	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{FailureThreshold: 2, Cooldown: time.Minute})

	ctx := context.Background()
	in := NewsletterSignup{Email: "a@b.co"}

	assert.Error(t, n.SendNewsletterWelcome(ctx, in))
	assert.Error(t, n.SendNewsletterWelcome(ctx, in))
	assert.Equal(t, "open", n.State())

	err := n.SendNewsletterWelcome(ctx, in)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 2, inner.calls, "open circuit must not reach the provider")
}

func TestProtectedNotifier_HalfOpenRecovers(t *testing.T) {
	inner := &fakeNotifier{err: errors.New("provider down")}
	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{FailureThreshold: 1, Cooldown: time.Minute})

	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	n.now = func() time.Time { return clock }

	ctx := context.Background()
	in := NewsletterSignup{Email: "a@b.co"}

	require.Error(t, n.SendNewsletterWelcome(ctx, in))
	require.Equal(t, "open", n.State())

	clock = clock.Add(2 * time.Minute)
	inner.err = nil

	require.NoError(t, n.SendNewsletterWelcome(ctx, in))
	assert.Equal(t, "closed", n.State())
}

func TestProtectedNotifier_CallerCancelDoesNotTrip(t *testing.T) {
	inner := &fakeNotifier{err: context.Canceled}
	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{FailureThreshold: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, n.SendNewsletterWelcome(ctx, NewsletterSignup{Email: "a@b.co"}))
	assert.Equal(t, "closed", n.State())
}

type fakeMailSender struct {
	status int
	err    error
	sent   []*mail.SGMailV3
}

func (f *fakeMailSender) SendWithContext(_ context.Context, email *mail.SGMailV3) (*rest.Response, error) {
	f.sent = append(f.sent, email)
	if f.err != nil {
		return nil, f.err
	}
	return &rest.Response{StatusCode: f.status}, nil
}

func TestSendGridNotifier_Sends(t *testing.T) {
	sender := &fakeMailSender{status: 202}
	n := newSendGridNotifier(sender, "news@bitmine.test", 100, 1)

	require.NoError(t, n.SendNewsletterWelcome(context.Background(), NewsletterSignup{Email: "a@b.co"}))
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	assert.Equal(t, "news@bitmine.test", msg.From.Address)
	assert.Equal(t, newsletterSubject, msg.Subject)
	require.Len(t, msg.Personalizations, 1)
	assert.Equal(t, "a@b.co", msg.Personalizations[0].To[0].Address)
}

func TestSendGridNotifier_RejectsErrorStatus(t *testing.T) {
	n := newSendGridNotifier(&fakeMailSender{status: 401}, "news@bitmine.test", 100, 1)

	err := n.SendNewsletterWelcome(context.Background(), NewsletterSignup{Email: "a@b.co"})
	assert.ErrorContains(t, err, "unexpected status 401")
}

func TestSendGridNotifier_RespectsCancelledContext(t *testing.T) {
	sender := &fakeMailSender{status: 202}
	n := newSendGridNotifier(sender, "news@bitmine.test", 0.001, 1)

	// drain the only token
	require.NoError(t, n.SendNewsletterWelcome(context.Background(), NewsletterSignup{Email: "a@b.co"}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.Error(t, n.SendNewsletterWelcome(ctx, NewsletterSignup{Email: "c@d.co"}))
	assert.Len(t, sender.sent, 1)
}
