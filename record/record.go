// Package record defines the message record model and source-file ingestion.
//
// A record is one ingested SMS or email. Records are immutable once embedded:
// the real-time path appends new records, it never edits existing ones.
package record

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnrecognizedShape is returned when an incoming payload matches neither
// the SMS nor the email shape. Callers on the real-time path are expected to
// skip such payloads with a warning rather than fail.
var ErrUnrecognizedShape = errors.New("unrecognized record shape")

// Source identifies where a record was ingested from.
type Source string

const (
	SourceSMS   Source = "sms"
	SourceEmail Source = "email"
)

// Record is one ingested message.
type Record struct {
	Source    Source         `json:"source"`
	Sender    string         `json:"sender"`            // "from" for emails
	Subject   string         `json:"subject,omitempty"` // emails only
	Body      string         `json:"body"`
	Timestamp string         `json:"timestamp"`
	Type      string         `json:"type,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// Metadata is the persisted per-message metadata object. Its key set mirrors
// the record source: SMS records carry "sender", emails carry "from"/"date".
type Metadata map[string]any

// SearchText renders the record into the combined text form that gets
// embedded and searched.
func (r Record) SearchText() string {
	sender := r.Sender
	if sender == "" {
		sender = "Unknown"
	}

	var text string
	switch r.Source {
	case SourceEmail:
		text = fmt.Sprintf("Email from %s about '%s': %s", sender, r.Subject, r.Body)
	default:
		text = fmt.Sprintf("SMS from %s: %s", sender, r.Body)
	}
	return strings.TrimSpace(text)
}

// Metadata builds the metadata object persisted alongside the record's text.
func (r Record) Metadata() Metadata {
	details := r.Details
	if details == nil {
		details = map[string]any{}
	}

	switch r.Source {
	case SourceEmail:
		return Metadata{
			"source":  string(SourceEmail),
			"from":    r.Sender,
			"date":    r.Timestamp,
			"type":    r.Type,
			"details": details,
		}
	default:
		return Metadata{
			"source":    string(SourceSMS),
			"sender":    r.Sender,
			"timestamp": r.Timestamp,
			"type":      r.Type,
			"details":   details,
		}
	}
}

// FromPayload builds a Record from a free-form payload, typically the body of
// a real-time "add message" request.
//
// A payload with "sender" and "text" fields is treated as an SMS; one with
// "from" and "body" as an email. Anything else fails with
// ErrUnrecognizedShape.
func FromPayload(payload map[string]any) (Record, error) {
	str := func(key string) string {
		if v, ok := payload[key].(string); ok {
			return v
		}
		return ""
	}

	details, _ := payload["details"].(map[string]any)

	if sender := str("sender"); sender != "" && str("text") != "" {
		return Record{
			Source:    SourceSMS,
			Sender:    sender,
			Body:      str("text"),
			Timestamp: str("timestamp"),
			Type:      str("type"),
			Details:   details,
		}, nil
	}

	if from := str("from"); from != "" && str("body") != "" {
		return Record{
			Source:    SourceEmail,
			Sender:    from,
			Subject:   str("subject"),
			Body:      str("body"),
			Timestamp: str("date"),
			Type:      str("type"),
			Details:   details,
		}, nil
	}

	return Record{}, ErrUnrecognizedShape
}
