// Package contacts implements persistence and lifecycle logic for
// discovered contacts.
//
// The service layer owns the rules for storing extraction results,
// recording validation outcomes, and retention cleanup. It depends on the
// Repository interface defined in this package and never imports from api/.
//
// The Postgres implementation lives in repository/postgres/.
package contacts
