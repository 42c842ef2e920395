package models

import "time"

// AdminPageSummary is one row of the admin user listing
type AdminPageSummary struct {
	Slug        string     `json:"slug"`
	UID         string     `json:"uid"`
	OwnerEmail  string     `json:"ownerEmail,omitempty"`
	DisplayName string     `json:"displayName"`
	Verified    bool       `json:"verified"`
	Suspended   bool       `json:"suspended"`
	Views       int64      `json:"views"`
	PlanID      string     `json:"planId"`
	PlanStatus  string     `json:"planStatus"`
	PlanExpires *time.Time `json:"planExpiresAt,omitempty"`
	Badges      []Badge    `json:"badges"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// AdminStats are the platform counters shown on the admin dashboard
type AdminStats struct {
	Pages               int64 `json:"pages"`
	PendingDeletion     int64 `json:"pendingDeletion"`
	SuspendedPages      int64 `json:"suspendedPages"`
	Polls               int64 `json:"polls"`
	Questions           int64 `json:"questions"`
	ShortLinks          int64 `json:"shortLinks"`
	Orders              int64 `json:"orders"`
	ActiveSubscriptions int64 `json:"activeSubscriptions"`
}
