// Package task defines the task record, its enumerations, and validation.
//
// Tasks are stored as a JSON array under a single storage key:
//
//	[
//	  {
//	    "id": "4f7c9a7e-3c1b-4e55-9d0e-0a9d7b2c1f00",
//	    "title": "Fix bug",
//	    "description": "",
//	    "status": "todo",
//	    "priority": "high",
//	    "createdAt": "2026-01-01T09:00:00Z",
//	    "updatedAt": "2026-01-01T09:00:00Z",
//	    "dueDate": null,
//	    "tags": []
//	  }
//	]
//
// # Validation
//
// Validate is the predicate every record must pass before it enters a
// collection. ValidateJSON checks a serialized record against the embedded
// JSON Schema (draft 2020-12) and is used when reading blobs written by
// other clients.
//
// # Status Values
//
//   - "todo": not started
//   - "in-progress": being worked on
//   - "done": complete
//
// # Priority Values
//
//   - "low" (weight 1)
//   - "medium" (weight 2, default)
//   - "high" (weight 3)
package task
