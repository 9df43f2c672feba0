package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
)

// Sender posts JSON payloads to a Slack incoming webhook. It makes exactly
// one attempt per call.
type Sender struct {
	httpClient *http.Client
	log        logrus.FieldLogger
	allowHTTP  bool
}

type SenderOption func(*Sender)

// WithHTTPClient sends requests through a copy of c.
func WithHTTPClient(c *http.Client) SenderOption {
	return func(s *Sender) {
		if c != nil {
			cp := *c
			cp.CheckRedirect = noRedirect
			s.httpClient = &cp
		}
	}
}

func WithTimeout(d time.Duration) SenderOption {
	return func(s *Sender) {
		if d > 0 {
			s.httpClient.Timeout = d
		}
	}
}

func WithLogger(l logrus.FieldLogger) SenderOption {
	return func(s *Sender) {
		if l != nil {
			s.log = l
		}
	}
}

// WithAllowHTTP accepts plain http webhook URLs, for local stubs.
func WithAllowHTTP() SenderOption {
	return func(s *Sender) {
		s.allowHTTP = true
	}
}

// noRedirect keeps every call to a single request; a 3xx body is returned
// like any other response.
func noRedirect(*http.Request, []*http.Request) error {
	return http.ErrUseLastResponse
}

func NewSender(opts ...SenderOption) *Sender {
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	s := &Sender{
		httpClient: &http.Client{Timeout: defaultTimeout, CheckRedirect: noRedirect},
		log:        discard,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send posts payload to webhookURL and returns the response body. The status
// code does not affect the result; only transport failures are errors.
// Returned errors never carry the URL path, which holds the webhook secret.
func (s *Sender) Send(ctx context.Context, webhookURL string, payload []byte) (string, error) {
	u, err := url.Parse(webhookURL)
	if err != nil {
		return "", invalidSlackURLError(stripURL(err))
	}
	if !u.IsAbs() || u.Host == "" {
		return "", invalidSlackURLError(nil)
	}
	switch {
	case u.Scheme == "https":
	case u.Scheme == "http" && s.allowHTTP:
	default:
		return "", invalidSlackURLError(fmt.Errorf("unsupported scheme %q", u.Scheme))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(payload))
	if err != nil {
		return "", invalidSlackURLError(stripURL(err))
	}
	req.ContentLength = int64(len(payload))
	req.Header.Set("Content-Type", "application/json")

	log := s.log.WithField("host", u.Host)
	resp, err := s.httpClient.Do(req)
	if err != nil {
		err = redactURL(err, u)
		log.WithError(err).Error("slack request error")
		return "", transportError(err, u.Host)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		err = redactURL(err, u)
		log.WithError(err).Error("slack response read error")
		return "", transportError(err, u.Host)
	}
	log.WithFields(logrus.Fields{
		"status": resp.StatusCode,
		"bytes":  len(data),
	}).Debug("slack response received")
	return string(data), nil
}

// redactURL replaces the URL inside a *url.Error with scheme and host only.
func redactURL(err error, u *url.URL) error {
	var uerr *url.Error
	if !errors.As(err, &uerr) {
		return err
	}
	return &url.Error{Op: uerr.Op, URL: u.Scheme + "://" + u.Host, Err: uerr.Err}
}

func stripURL(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return uerr.Err
	}
	return err
}
