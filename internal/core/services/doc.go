// Package services implements the driving ports on top of the driven ones.
//
// Every wait goes through an injected clockwork.Clock.
package services
