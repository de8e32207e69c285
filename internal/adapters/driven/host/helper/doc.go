// Package helper drives the external helper executable that impersonates a
// running title on the host.
//
// Each idle session is one helper process started as
//
//	<helper> idle <title-id> <title-name>
//
// Sessions are recorded as pid files in a state directory so that separate
// invocations of the CLI share one view of what is running. Achievement data
// and unlocks use the one-shot commands get_achievement_data and
// unlock_achievement.
package helper
