// Package notify holds the best-effort collaborators of the coordinator:
// Twilio SMS and Google Calendar.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("clinic.internal.notify")

const (
	defaultTwilioBaseURL = "https://api.twilio.com"
	maxAttempts          = 3
)

// TwilioSender posts SMS messages using Twilio's REST API.
type TwilioSender struct {
	accountSID string
	authToken  string
	baseURL    string
	httpClient *http.Client
	breaker    *Breaker
	retryDelay func(attempt int) time.Duration
	log        *zap.Logger
}

type TwilioOption func(*TwilioSender)

// WithTwilioBaseURL points the sender at another API host.
func WithTwilioBaseURL(u string) TwilioOption {
	return func(s *TwilioSender) { s.baseURL = strings.TrimRight(u, "/") }
}

func WithTwilioHTTPClient(c *http.Client) TwilioOption {
	return func(s *TwilioSender) { s.httpClient = c }
}

func WithTwilioBreaker(b *Breaker) TwilioOption {
	return func(s *TwilioSender) { s.breaker = b }
}

// WithRetryDelay replaces the jittered pause between attempts.
func WithRetryDelay(fn func(attempt int) time.Duration) TwilioOption {
	return func(s *TwilioSender) { s.retryDelay = fn }
}

func NewTwilioSender(accountSID, authToken string, log *zap.Logger, opts ...TwilioOption) *TwilioSender {
	if log == nil {
		log = zap.NewNop()
	}
	s := &TwilioSender{
		accountSID: accountSID,
		authToken:  authToken,
		baseURL:    defaultTwilioBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		retryDelay: func(int) time.Duration {
			return time.Duration(200+rand.Intn(300)) * time.Millisecond
		},
		log: log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send dispatches one SMS, retrying transient failures.
func (s *TwilioSender) Send(ctx context.Context, to, from, body string) error {
	if s.accountSID == "" || s.authToken == "" {
		return errors.New("notify: twilio credentials missing")
	}
	if to == "" || from == "" {
		return errors.New("notify: to and from required")
	}
	if strings.TrimSpace(body) == "" {
		return errors.New("notify: body required")
	}

	ctx, span := tracer.Start(ctx, "notify.twilio.send")
	defer span.End()
	span.SetAttributes(attribute.String("sms.to", to))

	err := s.breaker.Do(ctx, func(ctx context.Context) error {
		return s.send(ctx, to, from, body)
	})
	if err != nil {
		span.RecordError(err)
		return err
	}
	s.log.Info("twilio sms sent", zap.String("to", to))
	return nil
}

func (s *TwilioSender) send(ctx context.Context, to, from, body string) error {
	payload := url.Values{}
	payload.Set("To", to)
	payload.Set("From", from)
	payload.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.baseURL, s.accountSID)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(payload.Encode()))
		if err != nil {
			return err
		}
		req.SetBasicAuth(s.accountSID, s.authToken)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			lastErr = err
		} else {
			respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return nil
			}
			se := &StatusError{Provider: "twilio", Status: resp.StatusCode, Detail: formatTwilioError(resp.StatusCode, respBody)}
			lastErr = se
			if se.Permanent() {
				return se
			}
		}

		if attempt < maxAttempts {
			select {
			case <-ctx.Done():
				return errors.Join(lastErr, ctx.Err())
			case <-time.After(s.retryDelay(attempt)):
			}
		}
	}
	return lastErr
}

type twilioAPIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func formatTwilioError(status int, body []byte) string {
	body = []byte(strings.TrimSpace(string(body)))
	if len(body) == 0 {
		return fmt.Sprintf("status %d", status)
	}
	var parsed twilioAPIError
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Message != "" {
		if parsed.Code != 0 {
			return fmt.Sprintf("status %d code %d: %s", status, parsed.Code, parsed.Message)
		}
		return fmt.Sprintf("status %d: %s", status, parsed.Message)
	}
	return fmt.Sprintf("status %d: %s", status, string(body))
}
