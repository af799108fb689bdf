// Package bunstore provides a gostore.Source backed by the Bun query builder,
// so keyset and offset pagination work on top of a *bun.DB or a bun.Tx.
package bunstore
