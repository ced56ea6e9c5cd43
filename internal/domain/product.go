package domain

import "strings"

// UnassignedProductName names the product every space carries for people without work.
const UnassignedProductName = "unassigned"

// Product is a unit of work people are assigned to.
type Product struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	SpaceUUID string `json:"spaceUuid"`
	StartDate *Date  `json:"startDate"`
	EndDate   *Date  `json:"endDate"`
	Archived  bool   `json:"archived"`
	Notes     string `json:"notes"`
	URL       string `json:"url"`
	Location  *Tag   `json:"spaceLocation"`
	Tags      []Tag  `json:"tags"`
}

// IsUnassigned reports whether p is the space's unassigned bucket.
func (p Product) IsUnassigned() bool {
	return strings.EqualFold(p.Name, UnassignedProductName)
}

// ActiveOn reports whether the product runs on the given day.
func (p Product) ActiveOn(date Date) bool {
	if p.StartDate != nil && !p.StartDate.IsZero() && p.StartDate.After(date) {
		return false
	}
	if p.EndDate != nil && !p.EndDate.IsZero() && p.EndDate.Before(date) {
		return false
	}
	return true
}
