package gostore

import "errors"

var (
	// ErrInvalidArgument is returned when a required parameter is missing or
	// when mutually exclusive parameters are supplied together.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDisposed is returned by any operation on a closed (or already
	// finished) transaction, unit of work or repository.
	ErrDisposed = errors.New("object is disposed")

	// ErrTransactionActive is returned by UnitOfWork.BeginTransaction when the
	// unit of work already has an active transaction.
	ErrTransactionActive = errors.New("transaction is already active")

	// ErrTransient marks an error as safe to retry. Wrap it to let
	// IsTransient classify custom failures:
	//
	//	return fmt.Errorf("%w: upstream busy", gostore.ErrTransient)
	ErrTransient = errors.New("transient failure")
)
