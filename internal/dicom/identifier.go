// Package dicom provides attribute lookup, series filtering and pixel loading
// for the B0 shim phantom QC module.
package dicom

import (
	"strconv"
	"strings"

	"github.com/suyashkumar/dicom/pkg/tag"
)

// IdentifierKind tells how an attribute identifier was spelled.
type IdentifierKind int

const (
	// KindTag is a structured (group, element) tag supplied by code.
	KindTag IdentifierKind = iota
	// KindNumericPair is a textual "group,element" pair, e.g. "0x0008,0x103E".
	KindNumericPair
	// KindKeyword is a textual DICOM keyword, e.g. "SeriesDescription".
	KindKeyword
)

// String returns the string representation of an IdentifierKind.
func (k IdentifierKind) String() string {
	switch k {
	case KindTag:
		return "Tag"
	case KindNumericPair:
		return "NumericPair"
	case KindKeyword:
		return "Keyword"
	default:
		return "Unknown"
	}
}

// Identifier names a single DICOM attribute. Build one with TagIdentifier or
// ParseIdentifier; the zero value is a KindTag identifier for (0000,0000).
type Identifier struct {
	kind    IdentifierKind
	tag     tag.Tag
	keyword string
	raw     string
}

// TagIdentifier wraps a structured tag.
func TagIdentifier(t tag.Tag) Identifier {
	return Identifier{kind: KindTag, tag: t}
}

// ParseIdentifier interprets s as a "group,element" pair of hex numbers and
// falls back to treating it as a keyword when that fails. Parsing never
// fails; whether a keyword exists is decided at resolution time.
func ParseIdentifier(s string) Identifier {
	if t, ok := parseTagPair(s); ok {
		return Identifier{kind: KindNumericPair, tag: t, raw: s}
	}
	return Identifier{kind: KindKeyword, keyword: strings.TrimSpace(s), raw: s}
}

// Kind reports how the identifier was spelled.
func (id Identifier) Kind() IdentifierKind {
	return id.kind
}

// Tag returns the tag this identifier refers to. ok is false for keywords
// that are not in the DICOM dictionary.
func (id Identifier) Tag() (tag.Tag, bool) {
	if id.kind != KindKeyword {
		return id.tag, true
	}
	info, err := tag.FindByName(id.keyword)
	if err != nil {
		return tag.Tag{}, false
	}
	return info.Tag, true
}

// String returns the identifier as it was supplied, or the tag in
// (gggg,eeee) form for structured tags.
func (id Identifier) String() string {
	switch id.kind {
	case KindKeyword:
		return id.keyword
	case KindNumericPair:
		return strings.TrimSpace(id.raw)
	default:
		return id.tag.String()
	}
}

// parseTagPair parses "gggg,eeee", "0xgggg,0xeeee" or "(gggg,eeee)".
// Both halves are always read as hexadecimal.
func parseTagPair(s string) (tag.Tag, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")

	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return tag.Tag{}, false
	}

	var halves [2]uint16
	for i, p := range parts {
		p = strings.TrimSpace(p)
		p = strings.TrimPrefix(strings.TrimPrefix(p, "0x"), "0X")
		if p == "" {
			return tag.Tag{}, false
		}
		v, err := strconv.ParseUint(p, 16, 16)
		if err != nil {
			return tag.Tag{}, false
		}
		halves[i] = uint16(v)
	}

	return tag.Tag{Group: halves[0], Element: halves[1]}, true
}

