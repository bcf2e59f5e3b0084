// Package filter derives the displayed task sequence from the collection
// and the current search, priority, status and sort criteria.
//
// Apply is pure. Engine holds the criteria, debounces the search text and
// memoizes the last derived view on the collection revision plus criteria.
package filter
