package valueobject

import "strings"

// ProfileTag is a normalised label for categorising profiles.
type ProfileTag struct {
	value string
}

// NewProfileTag normalises value (trimmed, lowercased) into a tag.
func NewProfileTag(value string) ProfileTag {
	return ProfileTag{value: strings.ToLower(strings.TrimSpace(value))}
}

// Value returns the normalised tag string.
func (t ProfileTag) Value() string {
	return t.value
}

// String implements fmt.Stringer.
func (t ProfileTag) String() string {
	return t.value
}
