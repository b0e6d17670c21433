package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"
)

// Digest is the payload of one organiser email.
type Digest struct {
	Stats    Stats
	Insights string
}

// DigestSender delivers insight digests to organisers.
type DigestSender interface {
	SendDigest(ctx context.Context, d Digest) error
}

// NoopDigestSender is used when email delivery is not configured.
type NoopDigestSender struct {
	logger *zap.Logger
}

func NewNoopDigestSender(logger *zap.Logger) *NoopDigestSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NoopDigestSender{logger: logger}
}

func (s *NoopDigestSender) SendDigest(ctx context.Context, d Digest) error {
	s.logger.Info("[DigestSender] noop send digest", zap.Int("participants", d.Stats.Total))
	return nil
}

// emailSender is the part of the Resend client used here.
type emailSender interface {
	SendWithOptions(ctx context.Context, params *resend.SendEmailRequest, options *resend.SendEmailOptions) (*resend.SendEmailResponse, error)
}

// ResendDigestSender sends digests via Resend REST API.
type ResendDigestSender struct {
	from       string
	recipients []string
	emails     emailSender
	logger     *zap.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

func NewResendDigestSender(apiKey, from string, recipients []string, logger *zap.Logger) (*ResendDigestSender, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend api key is required")
	}
	client := resend.NewClient(apiKey)
	return newResendDigestSender(client.Emails, from, recipients, logger)
}

func newResendDigestSender(emails emailSender, from string, recipients []string, logger *zap.Logger) (*ResendDigestSender, error) {
	if from == "" {
		return nil, fmt.Errorf("email from is required")
	}
	if len(recipients) == 0 {
		return nil, fmt.Errorf("at least one digest recipient is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResendDigestSender{
		from:       from,
		recipients: recipients,
		emails:     emails,
		logger:     logger,
		sleep:      sleepCtx,
	}, nil
}

func (s *ResendDigestSender) SendDigest(ctx context.Context, d Digest) error {
	if strings.TrimSpace(d.Insights) == "" {
		return fmt.Errorf("digest insights are empty")
	}

	subject := fmt.Sprintf("Leaderboard digest: %d participants, %d eligible", d.Stats.Total, d.Stats.Eligible)
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      s.recipients,
		Subject: subject,
		Text:    digestText(d),
		Html:    digestHTML(d),
	}

	// один дайджест на снимок: повтор с тем же ключом не приведет к двойной отправке
	options := &resend.SendEmailOptions{
		IdempotencyKey: "digest-" + strconv.FormatInt(d.Stats.Outcome.FetchedAt.Unix(), 10),
	}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		_, err := s.emails.SendWithOptions(ctx, params, options)
		if err == nil {
			s.logger.Info("[DigestSender] digest sent", zap.Int("recipients", len(s.recipients)))
			return nil
		}
		lastErr = err

		if wait, ok := resendRetryDelay(err, attempt); ok {
			if sleepErr := s.sleep(ctx, wait); sleepErr != nil {
				return sleepErr
			}
			continue
		}

		return fmt.Errorf("resend send failed: %w", err)
	}

	return fmt.Errorf("resend send failed after retries: %w", lastErr)
}

func digestText(d Digest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Participants: %d\nEligible for swags: %d\n", d.Stats.Total, d.Stats.Eligible)
	fmt.Fprintf(&b, "Gold: %d, Silver: %d, Bronze: %d\n\n", d.Stats.Gold, d.Stats.Silver, d.Stats.Bronze)
	b.WriteString(d.Insights)
	return b.String()
}

func digestHTML(d Digest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<p>Participants: <strong>%d</strong><br>Eligible for swags: <strong>%d</strong></p>",
		d.Stats.Total, d.Stats.Eligible)
	fmt.Fprintf(&b, "<p>Gold: %d, Silver: %d, Bronze: %d</p>", d.Stats.Gold, d.Stats.Silver, d.Stats.Bronze)
	for _, para := range strings.Split(d.Insights, "\n\n") {
		if para = strings.TrimSpace(para); para != "" {
			b.WriteString("<p>" + strings.ReplaceAll(html.EscapeString(para), "\n", "<br>") + "</p>")
		}
	}
	return b.String()
}

func resendRetryDelay(err error, attempt int) (time.Duration, bool) {
	var rateLimitErr *resend.RateLimitError
	if errors.As(err, &rateLimitErr) {
		if seconds, convErr := strconv.Atoi(strings.TrimSpace(rateLimitErr.RetryAfter)); convErr == nil && seconds > 0 {
			if seconds > 30 {
				seconds = 30
			}
			return time.Duration(seconds) * time.Second, true
		}
		return time.Duration(attempt+1) * time.Second, true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "temporar") {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}

	return 0, false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
