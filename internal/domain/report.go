package domain

// PeopleReportRow is one line of the people-in-products report.
type PeopleReportRow struct {
	ProductName string `json:"productName"`
	PersonName  string `json:"personName"`
	PersonRole  string `json:"personRole"`
}

// SpaceReportRow summarizes a space and its members.
type SpaceReportRow struct {
	SpaceName string   `json:"spaceName"`
	CreatedBy string   `json:"createdBy"`
	Users     []string `json:"users"`
}
