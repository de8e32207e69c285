// Package file reads idlekit's config.toml and resolves the active
// identity from it.
package file
