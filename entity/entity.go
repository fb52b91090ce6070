// Package entity locates sensitive spans in message text.
//
// Each matcher is an independent pure function over the raw text. Matchers are
// deliberately regex-driven rather than model-driven: the values they find
// (amounts, dates, reference IDs, names) follow the rigid formats of
// transactional SMS and email, and a regex is auditable in a way a named-entity
// model is not.
package entity

import (
	"regexp"
	"strings"
)

// Type identifies the kind of sensitive span a matcher detects.
type Type string

const (
	TypeAmount   Type = "amount"
	TypeDate     Type = "date"
	TypeRefID    Type = "refid"
	TypeReceiver Type = "receiver"
	TypeSource   Type = "source"
)

// Entities maps detected entity types to their raw matched values.
// Absent detections are omitted, never stored as empty placeholders.
type Entities map[Type]string

// MatchFunc finds the first occurrence of one entity kind in text.
// The boolean reports whether anything was found.
type MatchFunc func(text string) (string, bool)

// Matcher pairs an entity type with its match function.
type Matcher struct {
	Type  Type
	Match MatchFunc
}

var (
	amountRE      = regexp.MustCompile(`(?:Rs\.?|₹)\s?(\d[\d,]*)`)
	dateRE        = regexp.MustCompile(`(?i)\b(\d{1,2}\s?(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\.?\s?\d{0,4})\b`)
	refIDRE       = regexp.MustCompile(`(?:Ref(?:erence)?(?:\sID)?:?\s?)([A-Za-z0-9]+)`)
	receiverRE    = regexp.MustCompile(`\bto\s([A-Z][a-zA-Z]+)\b`)
	capitalWordRE = regexp.MustCompile(`\b([A-Z][a-zA-Z]+)\b`)
)

// ExtractAmount matches a currency-prefixed numeric token (Rs./Rs/₹ with
// optional grouping commas) and returns the digits with commas stripped.
func ExtractAmount(text string) (string, bool) {
	m := amountRE.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.ReplaceAll(m[1], ",", ""), true
}

// ExtractDate matches a day number plus month abbreviation, case-insensitive,
// with an optional trailing year.
func ExtractDate(text string) (string, bool) {
	m := dateRE.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ExtractRefID matches an alphanumeric run following an optional
// "Reference"/"Ref"/"Ref ID" label and colon.
func ExtractRefID(text string) (string, bool) {
	m := refIDRE.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ExtractReceiver matches a capitalized word immediately following the
// literal word "to".
func ExtractReceiver(text string) (string, bool) {
	m := receiverRE.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ExtractSource matches the first capitalized word anywhere in the text,
// serving as a fallback identifier such as an app or organization name.
//
// This matcher is intentionally low precision: it is a last-resort label, not
// a named-entity recognizer. Callers that want higher precision can exclude
// it via WithoutSource.
func ExtractSource(text string) (string, bool) {
	m := capitalWordRE.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// DefaultMatchers returns the full matcher set in canonical order.
func DefaultMatchers() []Matcher {
	return []Matcher{
		{Type: TypeAmount, Match: ExtractAmount},
		{Type: TypeDate, Match: ExtractDate},
		{Type: TypeRefID, Match: ExtractRefID},
		{Type: TypeReceiver, Match: ExtractReceiver},
		{Type: TypeSource, Match: ExtractSource},
	}
}

// Options contains configuration options for the Extractor.
type Options struct {
	// Matchers is the set of matchers to run, in order.
	Matchers []Matcher
}

// WithoutSource removes the low-precision source matcher from the set.
func WithoutSource() func(o *Options) {
	return func(o *Options) {
		kept := o.Matchers[:0]
		for _, m := range o.Matchers {
			if m.Type != TypeSource {
				kept = append(kept, m)
			}
		}
		o.Matchers = kept
	}
}

// Extractor runs a configured matcher set over message text.
type Extractor struct {
	matchers []Matcher
}

// NewExtractor creates an Extractor with the default matcher set.
func NewExtractor(optFns ...func(o *Options)) *Extractor {
	opts := Options{Matchers: DefaultMatchers()}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Extractor{matchers: opts.Matchers}
}

// Extract runs all matchers over one message and returns the surviving
// entity-to-value mapping. Matchers that find nothing are omitted.
func (e *Extractor) Extract(text string) Entities {
	entities := make(Entities)
	for _, m := range e.matchers {
		if value, ok := m.Match(text); ok {
			entities[m.Type] = value
		}
	}
	return entities
}
