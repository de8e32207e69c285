// Package community implements credential validation and reward drop lookups
// against the community web site.
//
// Requests carry the user's session cookies and are throttled by a token
// bucket shared across the validator and the drop scraper. A 429 response
// pauses all requests for the advertised Retry-After period.
package community
