// Package identity parses composite "Display Name (ID)" strings.
//
// The embedded identifier is the only reliable join key: the same person can
// appear with different whitespace or alias suffixes in different columns.
package identity

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Unknown is the display name of a missing composite.
const Unknown = "Unknown"

var (
	aliasGroup  = regexp.MustCompile(`\s*\([^)]*\)`)
	trailingID  = regexp.MustCompile(`\s*\(\d+\)\s*$`)
	filenameBad = strings.NewReplacer(`\`, "_", "/", "_", ":", "_", "*", "_", "?", "_", `"`, "_", "<", "_", ">", "_", "|", "_")
)

// Identity is a display name plus a normalized identifier.
type Identity struct {
	name string
	id   string
}

// Parse splits a composite. The identifier is normalized; it is empty when
// the composite carries none.
func Parse(composite string) Identity {
	id, ok := ExtractID(composite)
	if ok {
		id = NormalizeID(id)
	}
	return Identity{name: ExtractName(composite), id: id}
}

func (i Identity) Name() string { return i.name }
func (i Identity) ID() string   { return i.id }
func (i Identity) HasID() bool  { return i.id != "" }

// ExtractName returns the text before the last "(", trimmed. A composite
// without a "(" past its first character is returned trimmed.
func ExtractName(composite string) string {
	if idx := strings.LastIndex(composite, "("); idx > 0 {
		return strings.TrimSpace(composite[:idx])
	}
	return strings.TrimSpace(composite)
}

// NameOf is ExtractName for a possibly missing composite.
func NameOf(composite string, present bool) string {
	if !present {
		return Unknown
	}
	return ExtractName(composite)
}

// ExtractID returns the trimmed text between the last "(" and the last ")".
func ExtractID(composite string) (string, bool) {
	start := strings.LastIndex(composite, "(")
	end := strings.LastIndex(composite, ")")
	if start <= 0 || end <= start {
		return "", false
	}
	return strings.TrimSpace(composite[start+1 : end]), true
}

// ParseID extracts and normalizes the identifier of a composite.
func ParseID(composite string) (string, bool) {
	id, ok := ExtractID(composite)
	if !ok {
		return "", false
	}
	return NormalizeID(id), true
}

// NormalizeID strips leading zeros; an all-zero or empty id becomes "0".
func NormalizeID(id string) string {
	id = strings.TrimLeft(strings.TrimSpace(id), "0")
	if id == "" {
		return "0"
	}
	return id
}

// StripAliases removes every parenthesized group, e.g. alternate-script names.
func StripAliases(s string) string {
	return strings.TrimSpace(aliasGroup.ReplaceAllString(s, ""))
}

// DisplayName is the name used in mail and package metadata: the trailing
// numeric identifier and any remaining aliases are removed.
func DisplayName(composite string) string {
	name := strings.TrimSpace(trailingID.ReplaceAllString(composite, ""))
	return StripAliases(name)
}

// ReportName is the manager name shown in report titles.
func ReportName(label string) string {
	return StripAliases(ExtractName(label))
}

// SanitizeForFilename drops alias groups and replaces characters that are
// not allowed in file names. It is idempotent.
func SanitizeForFilename(name string) string {
	name = aliasGroup.ReplaceAllString(name, "")
	name = filenameBad.Replace(name)
	return strings.TrimSpace(norm.NFC.String(name))
}
