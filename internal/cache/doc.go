// Package cache provides a Redis-backed cache for tool results, so
// repeated zip-code lookups within a session do not re-hit the Census,
// EPA, or geocoding backends.
package cache
