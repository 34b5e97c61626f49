// Package cache defines the byte cache used to front principal lookups during
// authentication. Implementations are free to drop entries at any time; every
// consumer falls through to the database on a miss or error.
package cache

import "time"

type Cache interface {
	Get(key string) ([]byte, error)
	Set(key string, content []byte, duration time.Duration) error
}
