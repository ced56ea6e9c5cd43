package domain

// Person is a member of a space who can be assigned to products.
type Person struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	SpaceRole *SpaceRole `json:"spaceRole"`
	Notes     string     `json:"notes"`
	NewPerson bool       `json:"newPerson"`
	Tags      []Tag      `json:"tags"`
	SpaceUUID string     `json:"spaceUuid"`
}

// SpaceRole is a role people in a space can hold.
type SpaceRole struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	SpaceUUID string `json:"spaceUuid"`
	Color     *Color `json:"color"`
}

// Color is an entry of the global role color palette.
type Color struct {
	ID    int64  `json:"id"`
	Color string `json:"color"`
}

// RoleName returns the person's role name, or empty when unset.
func (p Person) RoleName() string {
	if p.SpaceRole == nil {
		return ""
	}
	return p.SpaceRole.Name
}
