package domain

import "strings"

// Mode selects the answer style. It changes the instruction given to the
// generation service and, for ModeCompare, the shape of the assembled context.
type Mode string

// Available answer modes.
const (
	// ModeNormal answers using only the retrieved context.
	ModeNormal Mode = "normal"

	// ModeELI5 answers in simple language.
	ModeELI5 Mode = "eli5"

	// ModeCompare contrasts the documents in scope.
	ModeCompare Mode = "compare"
)

// ParseMode converts a user-supplied string to a Mode.
// An empty string yields ModeNormal.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeNormal:
		return ModeNormal, nil
	case ModeELI5:
		return ModeELI5, nil
	case ModeCompare:
		return ModeCompare, nil
	default:
		return "", ErrInvalidInput
	}
}

// IsValid returns true if the mode is recognised.
func (m Mode) IsValid() bool {
	switch m {
	case ModeNormal, ModeELI5, ModeCompare:
		return true
	default:
		return false
	}
}

// GroupsByDocument reports whether the context is grouped per document.
func (m Mode) GroupsByDocument() bool {
	return m == ModeCompare
}

// String returns the string representation.
func (m Mode) String() string {
	return string(m)
}

// Description returns a human-readable description of the mode.
func (m Mode) Description() string {
	switch m {
	case ModeNormal:
		return "Normal (answer from context)"
	case ModeELI5:
		return "ELI5 (explain like I'm five)"
	case ModeCompare:
		return "Compare (contrast documents)"
	default:
		return "Unknown"
	}
}

// AllModes returns all available answer modes.
func AllModes() []Mode {
	return []Mode{ModeNormal, ModeELI5, ModeCompare}
}

// MinCompareDocuments is the number of documents compare mode needs in scope.
const MinCompareDocuments = 2

// Query is a question restricted to an optional document scope.
type Query struct {
	// Text is the free-text question.
	Text string

	// Scope restricts retrieval to these document IDs. Empty means unrestricted.
	Scope []string

	// Mode is the requested answer mode.
	Mode Mode

	// K is the maximum number of chunks to retrieve.
	K int
}

// ScopeSet returns the scope as a set. A nil map means unrestricted.
func (q Query) ScopeSet() map[string]struct{} {
	return NewScope(q.Scope)
}

// NewScope builds a scope set from document IDs, ignoring blanks.
// It returns nil when no IDs are given.
func NewScope(ids []string) map[string]struct{} {
	var set map[string]struct{}
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if set == nil {
			set = make(map[string]struct{}, len(ids))
		}
		set[id] = struct{}{}
	}
	return set
}
