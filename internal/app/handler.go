package app

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/sirupsen/logrus"
)

// Handler turns issue events into Slack notifications.
type Handler struct {
	cfg    *Config
	sender *Sender
	log    logrus.FieldLogger
}

func NewHandler(cfg *Config, sender *Sender, log logrus.FieldLogger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{cfg: cfg, sender: sender, log: log}
}

// Handle is the invocation entrypoint. Undecodable events, malformed payloads
// and a missing webhook URL come back as a fixed result string with a nil
// error; a failed delivery is returned as an error.
func (h *Handler) Handle(ctx context.Context, raw json.RawMessage) (string, error) {
	log := h.logger(ctx)
	log.WithField("event", string(raw)).Info("FunctionHandler received")

	event, err := DecodeEvent(raw)
	if err != nil {
		return h.result(log, err)
	}
	return h.notify(ctx, log, event)
}

// Notify sends the notification for an already decoded event.
func (h *Handler) Notify(ctx context.Context, event IssueEvent) (string, error) {
	return h.notify(ctx, h.logger(ctx), event)
}

func (h *Handler) notify(ctx context.Context, log logrus.FieldLogger, event IssueEvent) (string, error) {
	log = log.WithFields(logrus.Fields{
		"action":     event.Action,
		"repository": event.Repository,
		"issue":      event.Number,
	})
	log.WithField("body", string(event.Body)).Debug("event body")
	log.WithField("html_url", event.HTMLURL).Info("issue event decoded")

	payload, err := NewIssueCreatedMessage(event.HTMLURL).Encode()
	if err != nil {
		return "", err
	}

	if h.cfg == nil || h.cfg.SlackURL == "" {
		return h.result(log, notConfiguredError())
	}

	resp, err := h.sender.Send(ctx, h.cfg.SlackURL, payload)
	if err != nil {
		log.WithError(err).WithField("code", TextCode(err)).Error("notification failed")
		return "", err
	}
	log.Info("notification sent")
	return resp, nil
}

func (h *Handler) result(log logrus.FieldLogger, err error) (string, error) {
	if result, ok := SoftResult(err); ok {
		log.WithError(err).WithField("code", TextCode(err)).Error(result)
		return result, nil
	}
	return "", err
}

func (h *Handler) logger(ctx context.Context) logrus.FieldLogger {
	lc, ok := lambdacontext.FromContext(ctx)
	if !ok {
		return h.log
	}
	return h.log.WithFields(logrus.Fields{
		"aws_request_id": lc.AwsRequestID,
		"function_arn":   lc.InvokedFunctionArn,
	})
}
