package repository

import "errors"

// Package repository contains data access layer abstractions.
// Implementations live in subpackages (e.g., postgres) inside this directory.

// ErrRequestNotPending is returned by InvestigationRequestRepository.Approve
// when the status flip matched zero rows, i.e. the request was already
// completed by the time the update ran. Concurrent approvals serialize at
// the row, so the losing caller always observes this error.
var ErrRequestNotPending = errors.New("request is not pending")

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
