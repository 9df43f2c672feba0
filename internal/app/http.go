package app

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	gh "github.com/google/go-github/v66/github"
	"github.com/sirupsen/logrus"
)

// NewRouterWithHandler returns an http.Handler (Gin engine) that feeds GitHub
// webhook deliveries to h. The request body is the GitHub payload itself.
func NewRouterWithHandler(h *Handler) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	// Health checks
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	// Webhook endpoint (support both paths for local and Vercel)
	r.POST("/webhook", h.serveWebhook)
	r.POST("/api/webhook", h.serveWebhook)

	return r
}

// GitHub caps webhook deliveries at 25 MB.
var maxWebhookBytes int64 = 25 << 20

func (h *Handler) serveWebhook(c *gin.Context) {
	log := h.logger(c.Request.Context()).WithFields(logrus.Fields{
		"github_event": gh.WebHookType(c.Request),
		"delivery":     gh.DeliveryID(c.Request),
	})

	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.String(http.StatusRequestEntityTooLarge, "payload too large")
			return
		}
		c.String(http.StatusBadRequest, "failed to read body")
		return
	}

	var result string
	var event IssueEvent
	if json.Valid(payload) {
		event, err = DecodeIssuePayload(payload)
	} else {
		err = invalidInputError(errInvalidJSON)
	}
	if err == nil {
		result, err = h.notify(c.Request.Context(), log, event)
	} else {
		result, err = h.result(log, err)
	}
	if err != nil {
		// The cause is logged, never echoed; it can describe the webhook URL.
		code := TextCode(err)
		if code == "" {
			code = "INTERNAL"
		}
		c.String(StatusCode(err), code)
		return
	}
	c.String(http.StatusOK, result)
}

// NewHandlerFromConfig wires a Handler, its Sender and the process logger.
func NewHandlerFromConfig(cfg *Config) (*Handler, *logrus.Logger) {
	logger := NewLogger(cfg)
	opts := []SenderOption{WithTimeout(cfg.Timeout), WithLogger(logger)}
	if cfg.AllowHTTP {
		logger.Warn("SLACK_ALLOW_HTTP is set: notifications may be sent in plaintext")
		opts = append(opts, WithAllowHTTP())
	}
	sender := NewSender(opts...)
	return NewHandler(cfg, sender, logger), logger
}

// HandlerFromEnv builds a Handler and its logger from environment variables.
func HandlerFromEnv() (*Handler, *logrus.Logger, error) {
	cfg, err := LoadConfigFromEnv()
	if err != nil {
		return nil, nil, err
	}
	h, logger := NewHandlerFromConfig(cfg)
	return h, logger, nil
}

// RouterFromEnv creates a Handler from env and returns a Gin router wired to it.
func RouterFromEnv() (http.Handler, error) {
	h, _, err := HandlerFromEnv()
	if err != nil {
		return nil, err
	}
	return NewRouterWithHandler(h), nil
}
