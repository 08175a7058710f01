package models

import "time"

// Status tracks where an order sits in the shop workflow.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// ValidStatus reports whether s is one of the known order statuses.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// statusTransitions lists the legal next statuses for each state.
// completed and cancelled are terminal.
var statusTransitions = map[Status][]Status{
	StatusPending:    {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

// CanTransition reports whether an order may move from one status to
// another. Self-transitions are allowed and treated as no-ops by callers.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Order is a submitted print job. Status is the only field that changes
// after creation.
type Order struct {
	ID              int64          `json:"id"`
	CustomerName    string         `json:"customer_name"`
	FileName        string         `json:"file_name"`
	FileSizeBytes   int64          `json:"file_size_bytes"`
	SpecialRequests string         `json:"special_requests"`
	Analysis        AnalysisResult `json:"analysis"`
	Pricing         PriceBreakdown `json:"pricing"`
	Status          Status         `json:"status"`
	CreatedAt       time.Time      `json:"created_at"`
}

// OrderDraft carries the fields a customer supplies when submitting an
// order. The store assigns id, status and timestamp.
type OrderDraft struct {
	CustomerName    string         `json:"customer_name"`
	FileName        string         `json:"file_name"`
	FileSizeBytes   int64          `json:"file_size_bytes"`
	SpecialRequests string         `json:"special_requests"`
	Analysis        AnalysisResult `json:"analysis"`
	Pricing         PriceBreakdown `json:"pricing"`
}
