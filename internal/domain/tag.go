package domain

import "fmt"

// TagKind distinguishes the three tag tables.
type TagKind string

const (
	TagKindProduct  TagKind = "product"
	TagKindLocation TagKind = "location"
	TagKindPerson   TagKind = "person"
)

// ParseTagKind maps a kind name to a TagKind.
func ParseTagKind(raw string) (TagKind, error) {
	switch TagKind(raw) {
	case TagKindProduct, TagKindLocation, TagKindPerson:
		return TagKind(raw), nil
	default:
		return "", fmt.Errorf("unknown tag kind %q", raw)
	}
}

// Tag labels products, locations or people within a space.
type Tag struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	SpaceUUID string `json:"spaceUuid"`
}
