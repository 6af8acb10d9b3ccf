// Package cache provides a small, thread-safe generic LRU cache.
//
// Inside notifykit it backs the read-mostly lookups on the dispatch hot
// path: resolved preference documents, active template versions and per-user
// in-app broadcasters. Callers invalidate entries explicitly when the
// underlying record changes; the LRU bound only protects memory.
package cache
