// Package docstore is the transactional document store the challenge engine
// runs on. Documents are JSON values under string keys; every mutation happens
// inside RunTransaction, which guarantees serializable isolation: when two
// transactions race on the same key exactly one commits and the loser fails
// with ErrConflict. Partial multi-document writes are never visible.
package docstore

import (
	"context"
	"errors"
)

// ErrConflict marks a retryable serialization abort. Callers are expected to
// re-run the whole transaction function a bounded number of times.
var ErrConflict = errors.New("docstore: transaction conflict")

// Tx is the handle passed to a transaction function. It is only valid for the
// duration of that call.
type Tx interface {
	// Get reads the document at key into dest. The second return is false
	// when no document exists, which is not an error.
	Get(key string, dest any) (bool, error)
	// Set writes the full document at key, creating it if absent.
	Set(key string, value any) error
	// Update merges the given fields into an existing document. Updating a
	// missing key is an error.
	Update(key string, fields map[string]any) error
}

type Store interface {
	RunTransaction(ctx context.Context, fn func(tx Tx) error) error
	// List visits every committed document whose key starts with prefix, in
	// key order. Reads outside a transaction; intended for catalog queries,
	// not for read-modify-write.
	List(ctx context.Context, prefix string, visit func(key string, raw []byte) error) error
}
