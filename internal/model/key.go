package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// KeyDelimiter separates the fields of a compound claim key.
const KeyDelimiter = " | "

// Key is the owner/branch/place identity of a claim. An empty Branch means
// the claim belongs directly to the owner.
type Key struct {
	Owner  string `json:"owner"`
	Branch string `json:"branch,omitempty"`
	Place  string `json:"place"`
}

// FormatKey joins a key into the single text column used by flat row stores:
// "owner | branch | place", or "owner | place" when there is no branch.
func FormatKey(k Key) string {
	if k.Branch == "" {
		return k.Owner + KeyDelimiter + k.Place
	}
	return k.Owner + KeyDelimiter + k.Branch + KeyDelimiter + k.Place
}

// ParseKey is the inverse of FormatKey. Both the two-field and three-field
// layouts are accepted; a string with no delimiter is an owner with no place.
// Anything past the second delimiter belongs to the place.
func ParseKey(s string) Key {
	parts := strings.SplitN(s, KeyDelimiter, 3)
	switch len(parts) {
	case 1:
		return Key{Owner: parts[0]}
	case 2:
		return Key{Owner: parts[0], Place: parts[1]}
	default:
		return Key{Owner: parts[0], Branch: parts[1], Place: parts[2]}
	}
}

func (k Key) String() string { return FormatKey(k) }

// ErrKeyDelimiter is returned for an owner, branch or place that would not
// read back unchanged from its compound key.
var ErrKeyDelimiter = eris.New(`claim owner, branch and place must not contain " | "`)

// ValidateLabel rejects a key field containing KeyDelimiter, or ending in
// its leading half, which would merge with the delimiter that follows it.
func ValidateLabel(s string) error {
	if strings.Contains(s, KeyDelimiter) || strings.HasSuffix(s, strings.TrimRight(KeyDelimiter, " ")) {
		return eris.Wrapf(ErrKeyDelimiter, "label %q", s)
	}
	return nil
}

// Validate checks that every field of k survives FormatKey and ParseKey.
func (k Key) Validate() error {
	for _, s := range []string{k.Owner, k.Branch, k.Place} {
		if err := ValidateLabel(s); err != nil {
			return err
		}
	}
	return nil
}
