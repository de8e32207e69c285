// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO. It implements the persistent stores through a single database connection:
//
//   - SettingsStore: per-identity automation settings
//   - ListStore: curated title lists
//   - CredentialsStore: community session cookies
//   - AchievementOrderStore: custom unlock orders
//   - SchedulerStore: scheduled tasks and run history
//
// # Schema
//
// The schema is managed through versioned migrations stored in the
// migrations/ directory. Each applied version is recorded in schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.idlekit/data/idlekit.db
package sqlite
