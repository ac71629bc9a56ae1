package store

import "time"

type Assignment struct {
	VisitorID string
	Key       string
	Value     string
	UpdatedAt time.Time
}

type Event struct {
	ID        string
	Category  string
	Action    string
	Label     string
	VisitorID string
	CreatedAt time.Time
}

type ActionCount struct {
	Action string `json:"action"`
	Label  string `json:"label"`
	Count  int    `json:"count"`
}
