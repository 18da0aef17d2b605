// Package gate implements the page-activation gate: it records which page is
// active per session, expires sessions after their timeout, and fans session
// changes out to live subscribers.
//
// Session state lives behind domain.SessionStore (in memory or redis).
// Expiry timers always live in this process.
package gate
