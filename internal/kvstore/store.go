// Package kvstore is the string key/value port that holds chat quota counters.
package kvstore

import (
	"context"
	"errors"
)

// ErrNotInteger is returned by IncrBy when the stored value is not a base-10 integer.
var ErrNotInteger = errors.New("kvstore: value is not an integer")

// Store is a durable string to string mapping.
//
// Get and Set are plain single-key operations. IncrBy and IncrBelow are atomic:
// a missing key counts as "0" and the new value is returned in the same step,
// so concurrent callers never observe the same result.
type Store interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	IncrBy(ctx context.Context, key string, delta int64) (int64, error)

	// IncrBelow adds one to key only while its value is below limit. It returns
	// the value after the call and whether the increment happened. The stored
	// value never passes limit through this method.
	IncrBelow(ctx context.Context, key string, limit int64) (int64, bool, error)
}
