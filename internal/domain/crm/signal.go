package crm

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// SignalSource identifies the channel a signal arrived through
type SignalSource string

const (
	SignalSourceTicket    SignalSource = "ticket"
	SignalSourceEmail     SignalSource = "email"
	SignalSourceQuoteForm SignalSource = "quote_form"
	SignalSourcePhone     SignalSource = "phone"
	SignalSourceImport    SignalSource = "import"
)

// phoneKeyDigits is how many trailing digits form a phone matching key.
// Country codes and trunk prefixes vary per channel for the same number,
// the trailing digits do not.
const phoneKeyDigits = 10

// Signal is one unit of evidence about who a customer is. It is transient:
// built per request, consumed by resolution, then discarded. Email and Phone
// hold normalized values once Normalized has been applied; raw input is never
// used as a matching key.
type Signal struct {
	Email      string            `json:"email,omitempty"`
	Phone      string            `json:"phone,omitempty"`
	Provider   string            `json:"provider,omitempty"`
	ExternalID string            `json:"external_id,omitempty"`
	FirstName  string            `json:"first_name,omitempty"`
	LastName   string            `json:"last_name,omitempty"`
	Company    string            `json:"company,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Source     SignalSource      `json:"source,omitempty"`
}

// Normalized returns a copy of the signal with canonical identity keys and
// cleaned-up name parts.
func (s Signal) Normalized() Signal {
	s.Email = NormalizeEmail(s.Email)
	s.Phone = NormalizePhone(s.Phone)
	s.Provider = strings.TrimSpace(strings.ToLower(s.Provider))
	s.ExternalID = strings.TrimSpace(s.ExternalID)
	s.FirstName = NormalizeName(s.FirstName)
	s.LastName = NormalizeName(s.LastName)
	s.Company = NormalizeName(s.Company)
	return s
}

// HasIdentifier reports whether the signal carries at least one matching key.
// Signals without one short-circuit to a skipped resolution.
func (s Signal) HasIdentifier() bool {
	if s.Email != "" || s.Phone != "" {
		return true
	}
	return s.Provider != "" && s.ExternalID != ""
}

// HasExternalRef reports whether the signal carries a (provider, externalID) pair
func (s Signal) HasExternalRef() bool {
	return s.Provider != "" && s.ExternalID != ""
}

// NormalizeEmail canonicalizes an email address for matching: trimmed and
// lowercased. Returns empty for unusable input.
func NormalizeEmail(raw string) string {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" || !strings.Contains(email, "@") {
		return ""
	}
	return email
}

// NormalizePhone canonicalizes a phone number for matching: every non-digit
// character is stripped and only the trailing 10 digits are kept, so
// "+1 (555) 123-4567" and "555.123.4567" compare equal. Returns empty when
// fewer than 10 digits remain.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) < phoneKeyDigits {
		return ""
	}
	return digits[len(digits)-phoneKeyDigits:]
}

// NormalizeName trims and NFC-normalizes a display-name part so visually
// identical names from different clients store identically.
func NormalizeName(raw string) string {
	return norm.NFC.String(strings.Join(strings.Fields(raw), " "))
}
