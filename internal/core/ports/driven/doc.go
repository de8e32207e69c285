// Package driven holds the interfaces services call out through. Adapters
// under internal/adapters/driven implement them.
//
// # Required
//
//   - Host: the desktop host application's process model
//   - SettingsStore: per-identity automation settings
//   - ListStore: persisted title lists
//   - IdentityProvider: the active account
//   - ConfigStore: application configuration
//
// # Optional
//
// These can be nil; the matching feature reports domain.ErrNotImplemented:
//
//   - CredentialsStore, CredentialValidator, RewardSource: batch farming
//   - AchievementSource, AchievementOrderStore: achievement unlocking
//   - SchedulerStore: background task history
//   - DiagnosticSink: diagnostic log (a nil sink drops messages)
//
// This package imports only domain.
package driven
