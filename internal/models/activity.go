package models

import "time"

// Activity holds per-user usage counters
type Activity struct {
	UserID                string    `json:"userId"`
	TimeSpent             int64     `json:"timeSpent"` // seconds
	SearchCount           int       `json:"searchCount"`
	PagesVisited          []string  `json:"pagesVisited"`
	RecommendationsViewed int       `json:"recommendationsViewed"`
	StartTime             time.Time `json:"startTime"`
}

// NewActivity returns zeroed counters starting now
func NewActivity(userID string) *Activity {
	return &Activity{
		UserID:       userID,
		PagesVisited: []string{},
		StartTime:    time.Now().UTC(),
	}
}

// PageVisitRequest is the body of a page visit event
type PageVisitRequest struct {
	Page string `json:"page"`
}

// TimeSpentRequest is the body of a time tracking event
type TimeSpentRequest struct {
	Seconds int64 `json:"seconds"`
}
