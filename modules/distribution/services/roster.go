// Package services packages generated reports and hands them to managers by
// mail.
package services

import (
	"github.com/jacksonlee411/attainment-reports/modules/attainment/domain/identity"
)

// Roster resolves manager labels to work email addresses.
type Roster struct {
	emails map[string]string
}

// NewRoster wraps a map of normalized employee id to email.
func NewRoster(emails map[string]string) *Roster {
	if emails == nil {
		emails = map[string]string{}
	}
	return &Roster{emails: emails}
}

// Email looks up the address of the identifier embedded in label.
func (r *Roster) Email(label string) (string, bool) {
	if r == nil {
		return "", false
	}
	id, ok := identity.ParseID(label)
	if !ok {
		return "", false
	}
	email, ok := r.emails[id]
	return email, ok && email != ""
}

func (r *Roster) Len() int {
	if r == nil {
		return 0
	}
	return len(r.emails)
}
