package models

type MonthCount struct {
	Month string `json:"month"` // e.g. "Jan 2024"
	Count int    `json:"count"`
}

type Analytics struct {
	TotalContacts   int          `json:"totalContacts"`
	NewContacts     int          `json:"newContacts"`
	TotalProjects   int          `json:"totalProjects"`
	ContactsByMonth []MonthCount `json:"contactsByMonth"`
	RecentContacts  []Contact    `json:"recentContacts"`
}
