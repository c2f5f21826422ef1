// Package registry persists run history and emitted clips in SQLite.
//
// The Store records one row per pipeline run and one row per rendered clip,
// so repeated invocations against the same output directory accumulate an
// auditable history instead of overwriting it. The database lives alongside
// the logs and is safe to delete; it is a record, not pipeline state.
//
// Schema changes add a new file under migrations/; applied versions are
// tracked in schema_migrations.
package registry
