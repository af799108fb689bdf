// Package gostore provides a small data-access layer for GORM: keyset
// pagination, offset pagination, a unit of work with resilient transactions
// and a thin generic repository.
//
// Keyset pagination
//
// PaginateKeyset reads one ordered window of a Source starting strictly past
// a Cursor. A cursor is None, Before(key) or After(key); "after" is always
// the side the traversal has not reached yet, so After(x) selects keys > x
// in ascending order and keys < x in descending order. Besides the items, a
// KeysetPage carries the minimum and maximum key of the whole filtered set.
//
// Sources:
//   - GORMSource: a *gorm.DB query.
//   - SliceSource: an in-memory slice.
//   - bunstore.Source: a Bun query (subpackage bunstore).
//
// KeysetPager and RawKeysetPager carry page requests through APIs as opaque
// base64 tokens.
//
// Unit of work
//
// UnitOfWork.ExecuteInResilientTransaction runs a callback in a transaction
// and commits or rolls back according to its result. The whole attempt is
// re-run by the configured RetryStrategy on transient faults such as
// deadlocks or serialization failures (see IsTransient). Repository writes
// are staged on the unit of work and flushed by UnitOfWork.Commit.
package gostore
