package task

import "time"

var defaultsEpoch = time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

// Defaults returns the starter board used when nothing is stored yet and
// as the target of a reset. Ids and timestamps are fixed so two calls
// return equal collections.
func Defaults() []Task {
	at := func(hours int) time.Time {
		return defaultsEpoch.Add(time.Duration(hours) * time.Hour)
	}
	return []Task{
		{
			ID:          "default-welcome",
			Title:       "Welcome to the board",
			Description: "Press ctrl+n to add a task, / to search, ? for all shortcuts.",
			Status:      StatusTodo,
			Priority:    PriorityMedium,
			CreatedAt:   at(0),
			UpdatedAt:   at(0),
			Tags:        []string{"guide"},
		},
		{
			ID:          "default-move",
			Title:       "Move a card between lanes",
			Description: "Select a card and press shift+left or shift+right.",
			Status:      StatusTodo,
			Priority:    PriorityLow,
			CreatedAt:   at(1),
			UpdatedAt:   at(1),
			Tags:        []string{"guide"},
		},
		{
			ID:          "default-filter",
			Title:       "Filter by priority and status",
			Description: "Press p, s and o to cycle the priority filter, status filter and sort order.",
			Status:      StatusInProgress,
			Priority:    PriorityHigh,
			CreatedAt:   at(2),
			UpdatedAt:   at(2),
			Tags:        []string{"guide"},
		},
		{
			ID:          "default-done",
			Title:       "Set up the board",
			Description: "",
			Status:      StatusDone,
			Priority:    PriorityMedium,
			CreatedAt:   at(3),
			UpdatedAt:   at(3),
			Tags:        []string{},
		},
	}
}
