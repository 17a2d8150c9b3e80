// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bugcache

import (
	"strings"

	"github.com/bureau-foundation/bugdesk/tracker"
)

// StatusAll is the status filter that matches every bug.
const StatusAll tracker.Status = "all"

// StatusFilters lists the status filter choices in display order.
var StatusFilters = append([]tracker.Status{StatusAll}, tracker.Statuses...)

// Filter narrows a bug list for display. It never modifies the cache.
type Filter struct {
	// Status must equal the bug's status. StatusAll or empty matches
	// every status.
	Status tracker.Status
	// Query is matched case-insensitively as a substring of the title,
	// description, bug number or any tag. Empty matches everything.
	Query string
}

// Matches reports whether bug passes both the status and text filters.
func (f Filter) Matches(bug tracker.Bug) bool {
	if f.Status != "" && f.Status != StatusAll && bug.Status != f.Status {
		return false
	}

	query := strings.ToLower(f.Query)
	if query == "" {
		return true
	}
	if containsFold(bug.Title, query) || containsFold(bug.Description, query) || containsFold(bug.BugNumber, query) {
		return true
	}
	for _, tag := range bug.Tags {
		if containsFold(tag, query) {
			return true
		}
	}
	return false
}

// containsFold reports whether the lower-cased query occurs in field.
// An empty field never matches a non-empty query.
func containsFold(field, query string) bool {
	return field != "" && strings.Contains(strings.ToLower(field), query)
}

// Apply returns the bugs that match, preserving order.
func (f Filter) Apply(bugs []tracker.Bug) []tracker.Bug {
	var matched []tracker.Bug
	for _, bug := range bugs {
		if f.Matches(bug) {
			matched = append(matched, bug)
		}
	}
	return matched
}

// NextStatus is the status a quick status toggle moves a bug to:
// open, in-progress and resolved cycle in order; closed reopens.
func NextStatus(status tracker.Status) tracker.Status {
	switch status {
	case tracker.StatusOpen:
		return tracker.StatusInProgress
	case tracker.StatusInProgress:
		return tracker.StatusResolved
	default:
		return tracker.StatusOpen
	}
}

// Summary is the dashboard's view of a bug list.
type Summary struct {
	Total      int
	Open       int
	InProgress int
	Resolved   int
	Closed     int
	// Recent holds the first RecentLimit bugs in list order, which is
	// newest first.
	Recent []tracker.Bug
}

// RecentLimit is how many bugs Summary.Recent holds.
const RecentLimit = 5

// Summarize counts bugs by status.
func Summarize(bugs []tracker.Bug) Summary {
	summary := Summary{Total: len(bugs)}
	for _, bug := range bugs {
		switch bug.Status {
		case tracker.StatusOpen:
			summary.Open++
		case tracker.StatusInProgress:
			summary.InProgress++
		case tracker.StatusResolved:
			summary.Resolved++
		case tracker.StatusClosed:
			summary.Closed++
		}
	}
	summary.Recent = append([]tracker.Bug(nil), bugs[:min(len(bugs), RecentLimit)]...)
	return summary
}
