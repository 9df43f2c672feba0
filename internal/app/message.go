package app

import (
	"bytes"
	"encoding/json"
)

const issueCreatedPrefix = "Issue Created: "

// Message is the body posted to the Slack incoming webhook.
type Message struct {
	Text string `json:"text"`
}

func NewIssueCreatedMessage(htmlURL string) Message {
	return Message{Text: issueCreatedPrefix + htmlURL}
}

// Encode returns minified JSON. HTML characters are left unescaped so query
// strings in issue URLs reach Slack byte for byte.
func (m Message) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(m); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
