package services

import (
	"strings"

	"github.com/go-faster/errors"

	"github.com/jacksonlee411/attainment-reports/modules/attainment/domain/identity"
	"github.com/jacksonlee411/attainment-reports/modules/attainment/domain/record"
)

type MatchMode string

const (
	// MatchLabel selects direct reports whose manager field equals the label
	// exactly. Two spellings of the same manager are two different managers.
	MatchLabel MatchMode = "label"
	// MatchIdentity selects direct reports by the identifier embedded in the
	// manager field, falling back to exact text when there is none.
	MatchIdentity MatchMode = "id"
)

var ErrUnknownMatchMode = errors.New("unknown match mode")

// ReportMatcher selects the direct reports of a manager label, in record order.
type ReportMatcher interface {
	DirectReports(label string) []record.Record
}

func ParseMatchMode(s string) (MatchMode, error) {
	switch MatchMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", MatchLabel:
		return MatchLabel, nil
	case MatchIdentity, "identity":
		return MatchIdentity, nil
	default:
		return "", errors.Wrap(ErrUnknownMatchMode, s)
	}
}

func NewMatcher(mode MatchMode, records []record.Record) (ReportMatcher, error) {
	switch mode {
	case "", MatchLabel:
		return NewLabelMatcher(records), nil
	case MatchIdentity:
		return NewIdentityMatcher(records), nil
	default:
		return nil, errors.Wrap(ErrUnknownMatchMode, string(mode))
	}
}

type LabelMatcher struct {
	byLabel map[string][]record.Record
}

func NewLabelMatcher(records []record.Record) *LabelMatcher {
	m := &LabelMatcher{byLabel: make(map[string][]record.Record)}
	for _, r := range records {
		if !r.Manager().Present() {
			continue
		}
		label := r.Manager().Text()
		m.byLabel[label] = append(m.byLabel[label], r)
	}
	return m
}

func (m *LabelMatcher) DirectReports(label string) []record.Record {
	return m.byLabel[label]
}

type IdentityMatcher struct {
	byKey map[string][]record.Record
}

func NewIdentityMatcher(records []record.Record) *IdentityMatcher {
	m := &IdentityMatcher{byKey: make(map[string][]record.Record)}
	for _, r := range records {
		if !r.Manager().Present() {
			continue
		}
		key := identityKey(r.Manager().Text())
		m.byKey[key] = append(m.byKey[key], r)
	}
	return m
}

func (m *IdentityMatcher) DirectReports(label string) []record.Record {
	return m.byKey[identityKey(label)]
}

func identityKey(label string) string {
	if id, ok := identity.ParseID(label); ok {
		return "id:" + id
	}
	return "label:" + label
}
