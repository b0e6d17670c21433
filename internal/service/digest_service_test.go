package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/resend/resend-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmails struct {
	errs   []error
	calls  int
	params *resend.SendEmailRequest
	opts   *resend.SendEmailOptions
}

func (f *fakeEmails) SendWithOptions(ctx context.Context, params *resend.SendEmailRequest, options *resend.SendEmailOptions) (*resend.SendEmailResponse, error) {
	f.calls++
	f.params = params
	f.opts = options
	if len(f.errs) >= f.calls {
		return nil, f.errs[f.calls-1]
	}
	return &resend.SendEmailResponse{Id: "email-1"}, nil
}

func newTestDigestSender(t *testing.T, emails *fakeEmails) *ResendDigestSender {
	t.Helper()
	s, err := newResendDigestSender(emails, "jams@example.com", []string{"lead@example.com"}, nil)
	require.NoError(t, err)
	s.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return s
}

func TestResendDigestSender_SendsDigest(t *testing.T) {
	emails := &fakeEmails{}
	s := newTestDigestSender(t, emails)

	err := s.SendDigest(context.Background(), Digest{
		Stats:    Stats{Total: 9, Eligible: 3, Gold: 1},
		Insights: "First <paragraph>\n\nSecond",
	})

	require.NoError(t, err)
	assert.Equal(t, 1, emails.calls)
	assert.Equal(t, []string{"lead@example.com"}, emails.params.To)
	assert.Contains(t, emails.params.Subject, "9 participants, 3 eligible")
	assert.Contains(t, emails.params.Html, "<p>First &lt;paragraph&gt;</p><p>Second</p>")
	assert.NotEmpty(t, emails.opts.IdempotencyKey)
}

func TestResendDigestSender_RetriesTemporaryErrors(t *testing.T) {
	emails := &fakeEmails{errs: []error{errors.New("request timeout"), errors.New("temporary failure")}}
	s := newTestDigestSender(t, emails)

	require.NoError(t, s.SendDigest(context.Background(), Digest{Insights: "ok"}))
	assert.Equal(t, 3, emails.calls)
}

func TestResendDigestSender_PermanentError(t *testing.T) {
	emails := &fakeEmails{errs: []error{errors.New("invalid from address")}}
	s := newTestDigestSender(t, emails)

	err := s.SendDigest(context.Background(), Digest{Insights: "ok"})
	assert.ErrorContains(t, err, "invalid from address")
	assert.Equal(t, 1, emails.calls)
}

func TestResendDigestSender_RejectsEmptyInsights(t *testing.T) {
	s := newTestDigestSender(t, &fakeEmails{})
	assert.Error(t, s.SendDigest(context.Background(), Digest{Insights: "  "}))
}

func TestNewResendDigestSender_Validation(t *testing.T) {
	_, err := NewResendDigestSender("", "a@b.c", []string{"x@y.z"}, nil)
	assert.Error(t, err)

	_, err = newResendDigestSender(&fakeEmails{}, "", []string{"x@y.z"}, nil)
	assert.Error(t, err)

	_, err = newResendDigestSender(&fakeEmails{}, "a@b.c", nil, nil)
	assert.Error(t, err)
}

func TestResendRetryDelay(t *testing.T) {
	wait, ok := resendRetryDelay(&resend.RateLimitError{RetryAfter: "120"}, 0)
	assert.True(t, ok)
	assert.Equal(t, 30*time.Second, wait)

	wait, ok = resendRetryDelay(&resend.RateLimitError{}, 1)
	assert.True(t, ok)
	assert.Equal(t, 2*time.Second, wait)

	_, ok = resendRetryDelay(errors.New("bad request"), 0)
	assert.False(t, ok)
}
