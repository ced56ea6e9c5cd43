package domain

import (
	"strings"
	"time"
)

// Permission levels a user may hold on a space.
const (
	PermissionOwner  = "owner"
	PermissionEditor = "editor"
)

// Space is a workspace scoping every other entity.
type Space struct {
	ID                int64     `json:"id"`
	UUID              string    `json:"uuid"`
	Name              string    `json:"name"`
	CreatedBy         string    `json:"createdBy"`
	CreatedAt         time.Time `json:"createdDate"`
	LastModifiedDate  time.Time `json:"lastModifiedDate"`
	TodayViewIsPublic bool      `json:"todayViewIsPublic"`
}

// UserSpaceMapping grants a user access to a space.
type UserSpaceMapping struct {
	ID         int64  `json:"id"`
	UserID     string `json:"userId"`
	SpaceUUID  string `json:"spaceUuid"`
	Permission string `json:"permission"`
}

// NormalizeUserID upper-cases and trims a user identifier.
func NormalizeUserID(userID string) string {
	return strings.ToUpper(strings.TrimSpace(userID))
}

// UserIDFromEmail derives a user identifier from the local part of an email.
func UserIDFromEmail(email string) string {
	local := strings.TrimSpace(email)
	if at := strings.Index(local, "@"); at >= 0 {
		local = local[:at]
	}
	return NormalizeUserID(local)
}
