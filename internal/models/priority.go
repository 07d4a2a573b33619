package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Priority is the task priority; values are fixed on the wire
type Priority int

const (
	PriorityLow    Priority = 1
	PriorityMedium Priority = 5
	PriorityHigh   Priority = 10
)

// Valid reports whether p is one of the defined priorities
func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "Low"
	case PriorityMedium:
		return "Medium"
	case PriorityHigh:
		return "High"
	default:
		return strconv.Itoa(int(p))
	}
}

// ParsePriority accepts either the numeric value or the name
func ParsePriority(raw string) (Priority, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case "low":
		return PriorityLow, nil
	case "medium":
		return PriorityMedium, nil
	case "high":
		return PriorityHigh, nil
	}
	if n, err := strconv.Atoi(s); err == nil && Priority(n).Valid() {
		return Priority(n), nil
	}
	return 0, fmt.Errorf("%w: unknown priority %q", ErrValidation, raw)
}
