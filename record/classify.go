package record

import (
	"regexp"
	"strconv"
	"strings"
)

// Type tags assigned by the classification heuristics.
const (
	TypeGeneral             = "general"
	TypeTransaction         = "transaction"
	TypeOrderUpdate         = "order_update"
	TypeMeeting             = "meeting"
	TypeOffer               = "offer"
	TypeConfirmationRequest = "confirmation_request"
	TypeReminder            = "reminder"
)

var (
	rupeePrefixRE   = regexp.MustCompile(`rs\.?`)
	punctuationRE   = regexp.MustCompile(`[^a-z0-9\s\.\:\%]`)
	whitespaceRE    = regexp.MustCompile(`\s+`)
	cleanAmountRE   = regexp.MustCompile(`rs[\s\.]?\s?([0-9,]+)`)
	orderIDRE       = regexp.MustCompile(`order\s*#?(\d+)`)
	deliveryTimeRE  = regexp.MustCompile(`deliver(?:ed|y)?\s*(?:by|on)?\s*([a-z0-9\s:]+)`)
	meetingTimeRE   = regexp.MustCompile(`(\d{1,2}\s?(?:am|pm|a\.m\.|p\.m\.))`)
	meetingDayRE    = regexp.MustCompile(`(monday|tuesday|wednesday|thursday|friday|saturday|sunday|tomorrow)`)
	onboardingDayRE = regexp.MustCompile(`onboarding\s+on\s+([0-9]{1,2}(?:st|nd|rd|th)?\s+\w+)`)
)

// Normalize cleans message text for classification: lowercase, unified
// currency prefix, punctuation stripped (numbers, %, ., and : survive for
// amounts and timestamps), whitespace collapsed.
//
// The normalized form is used by the classifiers only; the raw body is what
// gets embedded and masked.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	text = strings.ToLower(text)
	text = rupeePrefixRE.ReplaceAllString(text, "rs")
	text = strings.ReplaceAll(text, "₹", "rs")
	text = punctuationRE.ReplaceAllString(text, " ")
	text = whitespaceRE.ReplaceAllString(text, " ")

	return strings.TrimSpace(text)
}

// ClassifySMS tags an SMS record with a type and structured details based on
// keyword heuristics over the normalized body.
func ClassifySMS(r *Record) {
	clean := Normalize(r.Body)

	r.Type = TypeGeneral
	if r.Details == nil {
		r.Details = map[string]any{}
	}

	switch {
	case strings.Contains(clean, "debited") || strings.Contains(clean, "credited"):
		r.Type = TypeTransaction
		if m := cleanAmountRE.FindStringSubmatch(clean); m != nil {
			if amount, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64); err == nil {
				r.Details["amount"] = amount
			}
		}
		if strings.Contains(clean, "debited") {
			r.Details["action"] = "debited"
		} else {
			r.Details["action"] = "credited"
		}

	case strings.Contains(clean, "order") || strings.Contains(clean, "delivered"):
		r.Type = TypeOrderUpdate
		if m := orderIDRE.FindStringSubmatch(clean); m != nil {
			r.Details["order_id"] = m[1]
		}
		if m := deliveryTimeRE.FindStringSubmatch(clean); m != nil {
			r.Details["delivery_time"] = strings.TrimSpace(m[1])
		}

	case strings.Contains(clean, "remind") || strings.Contains(clean, "due"):
		r.Type = TypeReminder
	}
}

// ClassifyEmail tags an email record with a type and structured details based
// on keyword heuristics over the normalized subject and body.
func ClassifyEmail(r *Record) {
	clean := Normalize(r.Subject + " " + r.Body)

	r.Type = TypeGeneral
	if r.Details == nil {
		r.Details = map[string]any{}
	}

	switch {
	case strings.Contains(clean, "meeting") || strings.Contains(clean, "schedule") || strings.Contains(clean, "review"):
		r.Type = TypeMeeting
		if m := meetingTimeRE.FindStringSubmatch(clean); m != nil {
			r.Details["time"] = m[1]
		}
		if m := meetingDayRE.FindStringSubmatch(clean); m != nil {
			r.Details["day"] = m[1]
		}

	case strings.Contains(clean, "offer") || strings.Contains(clean, "internship") || strings.Contains(clean, "selected"):
		r.Type = TypeOffer
		if m := onboardingDayRE.FindStringSubmatch(clean); m != nil {
			r.Details["onboarding_date"] = m[1]
		}

	case strings.Contains(clean, "confirm") || strings.Contains(clean, "response"):
		r.Type = TypeConfirmationRequest

	case strings.Contains(clean, "remind") || strings.Contains(clean, "due"):
		r.Type = TypeReminder
	}
}
