// Package cache persists discovered directory lists in Badger.
//
// Two Store implementations share one database: the durable store keeps
// entries until they are deleted, the expiring store attaches a TTL to every
// write. A short-lived lease keyed in the same database lets concurrent
// callers avoid redundant scans.
package cache
