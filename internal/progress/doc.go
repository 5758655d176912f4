// Package progress persists the learner's per-unit completion flags and the
// last active unit id as a single JSON document.
//
// Reads never fail: a missing, unreadable or malformed document is treated
// as a fresh start. Writes replace the whole document; the last writer wins.
package progress
