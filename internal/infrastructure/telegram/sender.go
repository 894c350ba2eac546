package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"NewsRelay/internal/domain"
	"NewsRelay/internal/ports"
	"NewsRelay/internal/retry"
)

// DefaultAPIBase is the public bot API endpoint.
const DefaultAPIBase = "https://api.telegram.org"

const maxErrorBody = 1024

// Options configures a Sender.
type Options struct {
	APIBase  string
	BotToken string
	Client   *http.Client
	// RatePerSecond paces sends; zero or negative disables pacing.
	RatePerSecond float64
	Retry         retry.Config
}

// Sender posts messages through the bot API sendMessage method.
type Sender struct {
	apiBase  string
	botToken string
	client   *http.Client
	limiter  *rate.Limiter
	retry    retry.Config
}

var _ ports.Sender = (*Sender)(nil)

// NewSender registers the bot token and transport.
func NewSender(opts Options) *Sender {
	base := strings.TrimRight(strings.TrimSpace(opts.APIBase), "/")
	if base == "" {
		base = DefaultAPIBase
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	var limiter *rate.Limiter
	if opts.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), 1)
	}

	retryCfg := opts.Retry
	retryCfg.IsRetryable = NotPosted

	return &Sender{
		apiBase:  base,
		botToken: opts.BotToken,
		client:   client,
		limiter:  limiter,
		retry:    retryCfg,
	}
}

// NotPosted reports whether a failed send certainly left no message behind:
// the API rejected it with 429, or the connection was refused. Timeouts and
// 5xx responses may follow a successful post, so they are not retried.
func NotPosted(err error) bool {
	var te *domain.TransportError
	if !errors.As(err, &te) {
		return false
	}
	if te.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return te.StatusCode == 0 && errors.Is(err, syscall.ECONNREFUSED)
}

// Send delivers msg to channel. Only HTTP 200 counts as success; anything
// else is a *domain.TransportError carrying the status and response body.
func (s *Sender) Send(ctx context.Context, channel string, msg domain.Message) error {
	if s.botToken == "" {
		return errors.New("telegram sender misconfigured: empty bot token")
	}

	return retry.Do(ctx, s.retry, func(ctx context.Context) error {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return fmt.Errorf("rate limit wait: %w", err)
			}
		}
		return s.sendOnce(ctx, channel, msg)
	})
}

func (s *Sender) sendOnce(ctx context.Context, channel string, msg domain.Message) error {
	endpoint := s.endpoint(channel, msg)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return &domain.TransportError{Op: "sendMessage", URL: s.redacted(), Err: redactErr(err, s.botToken)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &domain.TransportError{
			Op:         "sendMessage",
			URL:        s.redacted(),
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (s *Sender) endpoint(channel string, msg domain.Message) string {
	params := url.Values{}
	params.Set("chat_id", channel)
	params.Set("text", msg.Text)
	if msg.ParseMode != "" {
		params.Set("parse_mode", msg.ParseMode)
	}
	params.Set("disable_web_page_preview", strconv.FormatBool(msg.DisablePreview))

	return fmt.Sprintf("%s/bot%s/sendMessage?%s", s.apiBase, s.botToken, params.Encode())
}

func (s *Sender) redacted() string {
	return s.apiBase + "/bot<redacted>/sendMessage"
}

// redactErr keeps the bot token out of logged *url.Error messages.
func redactErr(err error, token string) error {
	if token == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(err.Error(), token, "<redacted>"), err: err}
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }

func (e *redactedError) Unwrap() error { return e.err }
