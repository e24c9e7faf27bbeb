package domain

import (
	"time"
)

type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
)

// Statuses lists every valid status in display order.
var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted}

// ParseStatus accepts exactly one of the three status strings.
func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", Validation("Invalid status value")
}

// Task is a single task record. ID and CreationDate never change after creation.
type Task struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Status       Status    `json:"status"`
	CreationDate time.Time `json:"creationDate"`
}

// FilterByStatus keeps tasks whose status equals filter, preserving order.
// An empty or unknown filter returns tasks unchanged.
func FilterByStatus(tasks []*Task, filter string) []*Task {
	status, err := ParseStatus(filter)
	if err != nil {
		return tasks
	}
	res := make([]*Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Status == status {
			res = append(res, t)
		}
	}
	return res
}

// NextID returns max(existing ids)+1, or 1 for an empty set.
func NextID(tasks []*Task) int {
	maxID := 0
	for _, t := range tasks {
		if t.ID > maxID {
			maxID = t.ID
		}
	}
	return maxID + 1
}

func CopyTask(t *Task) *Task {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
