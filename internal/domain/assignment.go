package domain

// Assignment places a person on a product from an effective date onward.
// A nil EffectiveDate marks a baseline assignment.
type Assignment struct {
	ID            int64  `json:"id"`
	Person        Person `json:"person"`
	ProductID     int64  `json:"productId"`
	Placeholder   bool   `json:"placeholder"`
	SpaceUUID     string `json:"spaceUuid"`
	EffectiveDate *Date  `json:"effectiveDate"`
	StartDate     *Date  `json:"startDate"`
}

// OnDate reports whether the assignment belongs to the batch at date.
func (a Assignment) OnDate(date Date) bool {
	return a.EffectiveDate != nil && a.EffectiveDate.Equal(date)
}

// ProductPlaceholderPair is one requested product in an assignment batch.
type ProductPlaceholderPair struct {
	ProductID   int64 `json:"productId" validate:"required,gt=0"`
	Placeholder bool  `json:"placeholder"`
}

// CreateAssignmentsRequest replaces a person's batch at RequestedDate.
type CreateAssignmentsRequest struct {
	RequestedDate Date                     `json:"requestedDate"`
	Products      []ProductPlaceholderPair `json:"products" validate:"dive"`
}

// Reassignment describes a person's product change between two consecutive days.
type Reassignment struct {
	Person          Person `json:"person"`
	FromProductName string `json:"fromProductName"`
	ToProductName   string `json:"toProductName"`
}
