package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

const issueEvent = `{"body":{"issue":{"html_url":"https://example.com/issues/1"}}}`

func newTestHandler(t *testing.T, slackURL string) (*Handler, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	cfg := &Config{SlackURL: slackURL, Timeout: defaultTimeout}
	return NewHandler(cfg, NewSender(WithAllowHTTP(), WithLogger(logger)), logger), hook
}

func TestHandleScenarios(t *testing.T) {
	quoted, _ := json.Marshal(issueEvent)
	for name, raw := range map[string]string{
		"object": issueEvent,
		"string": string(quoted),
	} {
		t.Run(name, func(t *testing.T) {
			srv, reqs := newSlackStub(t, http.StatusOK, "ok")
			h, _ := newTestHandler(t, srv.URL)

			got, err := h.Handle(context.Background(), json.RawMessage(raw))
			if err != nil {
				t.Fatalf("Handle: %v", err)
			}
			if got != "ok" {
				t.Fatalf("Handle = %q; want %q", got, "ok")
			}
			req := <-reqs
			want := `{"text":"Issue Created: https://example.com/issues/1"}`
			if req.body != want {
				t.Fatalf("posted %s; want %s", req.body, want)
			}
			if len(reqs) != 0 {
				t.Fatal("expected exactly one request")
			}
		})
	}
}

func TestHandleReturnsResponseBodyForAnyStatus(t *testing.T) {
	for status, body := range map[int]string{
		http.StatusOK:                  "ok",
		http.StatusInternalServerError: "invalid_token",
	} {
		srv, _ := newSlackStub(t, status, body)
		h, _ := newTestHandler(t, srv.URL)
		got, err := h.Handle(context.Background(), json.RawMessage(issueEvent))
		if err != nil {
			t.Fatalf("status %d: Handle: %v", status, err)
		}
		if got != body {
			t.Fatalf("status %d: Handle = %q; want %q", status, got, body)
		}
	}
}

func TestHandleSoftFailures(t *testing.T) {
	tests := []struct {
		name     string
		slackURL bool
		raw      string
		want     string
	}{
		{"invalid json", true, `not json`, ResultInvalidInput},
		{"invalid json string", true, `"{oops"`, ResultInvalidInput},
		{"missing issue", true, `{"body":{}}`, ResultInvalidPayload},
		{"missing body", true, `{}`, ResultInvalidPayload},
		{"not configured", false, issueEvent, ResultNotConfigured},
		{"invalid payload before config", false, `{"body":{}}`, ResultInvalidPayload},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, reqs := newSlackStub(t, http.StatusOK, "ok")
			slackURL := ""
			if tt.slackURL {
				slackURL = srv.URL
			}
			h, hook := newTestHandler(t, slackURL)

			got, err := h.Handle(context.Background(), json.RawMessage(tt.raw))
			if err != nil {
				t.Fatalf("Handle: unexpected error %v", err)
			}
			if got != tt.want {
				t.Fatalf("Handle = %q; want %q", got, tt.want)
			}
			if len(reqs) != 0 {
				t.Fatal("expected no request to slack")
			}
			if e := hook.LastEntry(); e == nil || e.Level != logrus.ErrorLevel {
				t.Fatalf("expected an error log entry, got %+v", e)
			}
		})
	}
}

func TestHandleNilConfig(t *testing.T) {
	logger, _ := test.NewNullLogger()
	h := NewHandler(nil, nil, logger)
	got, err := h.Handle(context.Background(), json.RawMessage(issueEvent))
	if err != nil || got != ResultNotConfigured {
		t.Fatalf("Handle = %q, %v; want %q", got, err, ResultNotConfigured)
	}
}

func TestHandleTransportFailureIsHard(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	h, _ := newTestHandler(t, addr)
	got, err := h.Handle(context.Background(), json.RawMessage(issueEvent))
	if err == nil {
		t.Fatalf("expected error, got result %q", got)
	}
	if got != "" {
		t.Fatalf("result = %q; want empty on failure", got)
	}
	if TextCode(err) != CodeTransportFailure {
		t.Fatalf("TextCode = %q", TextCode(err))
	}
}

func TestHandleInvalidSlackURLIsHard(t *testing.T) {
	h, _ := newTestHandler(t, "hooks.slack.com/services/T/B/X")
	if _, err := h.Handle(context.Background(), json.RawMessage(issueEvent)); TextCode(err) != CodeInvalidSlackURL {
		t.Fatalf("Handle error = %v; want %s", err, CodeInvalidSlackURL)
	}
}

func TestHandleLogsLambdaRequestID(t *testing.T) {
	srv, _ := newSlackStub(t, http.StatusOK, "ok")
	h, hook := newTestHandler(t, srv.URL)
	ctx := lambdacontext.NewContext(context.Background(), &lambdacontext.LambdaContext{
		AwsRequestID:       "req-123",
		InvokedFunctionArn: "arn:aws:lambda:us-east-1:000000000000:function:issue-notifier",
	})

	if _, err := h.Handle(ctx, json.RawMessage(issueEvent)); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	entries := hook.AllEntries()
	if len(entries) == 0 {
		t.Fatal("expected log entries")
	}
	for _, e := range entries {
		if e.Data["aws_request_id"] == "req-123" {
			return
		}
	}
	t.Fatal("expected aws_request_id on log entries")
}

func TestNotify(t *testing.T) {
	srv, reqs := newSlackStub(t, http.StatusOK, "ok")
	h, _ := newTestHandler(t, srv.URL)

	got, err := h.Notify(context.Background(), IssueEvent{HTMLURL: "https://example.com/issues/9"})
	if err != nil || got != "ok" {
		t.Fatalf("Notify = %q, %v", got, err)
	}
	if req := <-reqs; req.body != `{"text":"Issue Created: https://example.com/issues/9"}` {
		t.Fatalf("posted %s", req.body)
	}
}

func TestHandleEmptyHTMLURL(t *testing.T) {
	srv, reqs := newSlackStub(t, http.StatusOK, "ok")
	h, _ := newTestHandler(t, srv.URL)

	got, err := h.Handle(context.Background(), json.RawMessage(`{"body":{"issue":{"html_url":""}}}`))
	if err != nil || got != "ok" {
		t.Fatalf("Handle = %q, %v", got, err)
	}
	if req := <-reqs; req.body != `{"text":"Issue Created: "}` {
		t.Fatalf("posted %s", req.body)
	}
}

func TestHandleIgnoresUnrelatedFields(t *testing.T) {
	srv, reqs := newSlackStub(t, http.StatusOK, "ok")
	h, _ := newTestHandler(t, srv.URL)

	raw := `{"body":{"issue":{"html_url":"https://example.com/issues/1","id":"abc","created_at":"yesterday"},"sender":"bot"}}`
	if _, err := h.Handle(context.Background(), json.RawMessage(raw)); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if req := <-reqs; req.body != `{"text":"Issue Created: https://example.com/issues/1"}` {
		t.Fatalf("posted %s", req.body)
	}
}
