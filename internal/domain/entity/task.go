package entity

import "strings"

type Category string

const (
	CategoryStandard   Category = "standard"
	CategoryFacilities Category = "facilities"
)

func (c Category) String() string {
	return string(c)
}

// WorkItem is one questionnaire card found on the landing page.
// OrdinalIndex is only valid for the enumeration that produced it.
type WorkItem struct {
	Title        string
	Description  string
	TargetRef    string
	Category     Category
	Completed    bool
	OrdinalIndex int
}

func (w WorkItem) Label() string {
	if w.Description == "" {
		return w.Title
	}
	return w.Title + ": " + w.Description
}

// SameAs compares everything except OrdinalIndex.
func (w WorkItem) SameAs(other WorkItem) bool {
	return w.Title == other.Title &&
		w.Description == other.Description &&
		w.TargetRef == other.TargetRef &&
		w.Category == other.Category &&
		w.Completed == other.Completed
}

func (w WorkItem) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return false
	}
	return strings.Contains(strings.ToLower(w.Label()), q)
}

type RunSelection []WorkItem

func Incomplete(items []WorkItem) RunSelection {
	out := make(RunSelection, 0, len(items))
	for _, it := range items {
		if !it.Completed {
			out = append(out, it)
		}
	}
	return out
}

func CountCompleted(items []WorkItem) int {
	n := 0
	for _, it := range items {
		if it.Completed {
			n++
		}
	}
	return n
}
