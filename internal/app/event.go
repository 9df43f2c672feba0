package app

import (
	"bytes"
	"encoding/json"
	"strings"

	gh "github.com/google/go-github/v66/github"
)

// IssueEvent is the part of an inbound event the notifier acts on.
type IssueEvent struct {
	Action     string
	HTMLURL    string
	Repository string
	Number     int

	// Body is the decoded GitHub payload, kept for diagnostics.
	Body json.RawMessage
}

// DecodeEvent parses an invocation payload of the form
// {"body": {"issue": {"html_url": "..."}}}. The payload may also arrive as
// a JSON string holding that document, and body may itself be a JSON string
// as API Gateway proxy integrations deliver it.
func DecodeEvent(raw []byte) (IssueEvent, error) {
	raw = bytes.TrimSpace(raw)
	if !json.Valid(raw) {
		return IssueEvent{}, invalidInputError(errInvalidJSON)
	}
	if raw[0] == '"' {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return IssueEvent{}, invalidInputError(err)
		}
		raw = []byte(strings.TrimSpace(text))
		if !json.Valid(raw) {
			return IssueEvent{}, invalidInputError(errInvalidJSON)
		}
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return IssueEvent{}, invalidPayloadError("decode event: expected an object", err)
	}
	body := bytes.TrimSpace(envelope["body"])
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return IssueEvent{}, invalidPayloadError("decode event: missing body", nil)
	}
	if body[0] == '"' {
		var text string
		if err := json.Unmarshal(body, &text); err != nil {
			return IssueEvent{}, invalidPayloadError("decode event: invalid body", err)
		}
		body = []byte(text)
	}
	return DecodeIssuePayload(body)
}

// issuePayload holds the only fields of the payload that affect behavior.
type issuePayload struct {
	Issue *struct {
		HTMLURL *string `json:"html_url"`
	} `json:"issue"`
}

// DecodeIssuePayload parses a GitHub issues webhook payload. Only issue and
// issue.html_url are validated; every other field is read best effort.
func DecodeIssuePayload(payload []byte) (IssueEvent, error) {
	var p issuePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return IssueEvent{}, invalidPayloadError("decode event: invalid body", err)
	}
	if p.Issue == nil {
		return IssueEvent{}, invalidPayloadError("decode event: missing body.issue", nil)
	}
	if p.Issue.HTMLURL == nil {
		return IssueEvent{}, invalidPayloadError("decode event: missing body.issue.html_url", nil)
	}

	event := IssueEvent{
		HTMLURL: *p.Issue.HTMLURL,
		Body:    json.RawMessage(payload),
	}
	// Metadata is for logs only. Unmarshal keeps going past type mismatches,
	// so fields that don't match the GitHub schema are simply left blank.
	var e gh.IssuesEvent
	_ = json.Unmarshal(payload, &e)
	event.Action = e.GetAction()
	event.Repository = e.GetRepo().GetFullName()
	event.Number = e.GetIssue().GetNumber()
	return event, nil
}
