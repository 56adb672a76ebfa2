// Package domain defines the core business types for the contact discovery
// engine: contacts, contact forms, social profiles, validation records, and
// the per-run discovery context.
//
// Types in this package are pure value objects with no I/O, no database
// dependencies, and no HTTP concerns. They are the shared language between
// extractors, the scorer, the validator, the store, and the engine.
//
// Rules for this package:
//   - No imports from other internal/ packages
//   - No *sql.DB, no http.Request, no context.Context in struct fields
//   - JSON/DB tags are allowed (they're metadata, not behavior)
//   - Validation methods are allowed (they're pure functions on the type)
//   - Constants, enums, and lookup tables belong here
package domain
