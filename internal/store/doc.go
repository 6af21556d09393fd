// Package store persists opening books as single-file snapshots.
//
// A snapshot is a small fixed header, a JSON metadata block (snapshot id,
// creation time, depth limit and counts) and a zstd-compressed body holding
// every position and move sorted by key, so equal books produce equal bodies.
//
// Writes go to a temporary file that is renamed over the target, so readers
// never observe a partial snapshot.
package store
