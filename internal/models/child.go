package models

import "time"

// Child belongs to a parent account and references the school and class
// (grade/letter, e.g. "3Б") the child attends.
type Child struct {
	ID        int       `json:"id"`
	ParentID  int       `json:"parent_id"`
	SchoolID  int       `json:"school_id"`
	Name      string    `json:"name"`
	Age       int       `json:"age"`
	Class     string    `json:"class"`
	CreatedAt time.Time `json:"created_at"`
}
