package domain

import (
	"context"
	"errors"
)

type Service interface {
	// Snapshot aggregates the acting user's dashboard metrics. The underlying
	// fetches run concurrently and the snapshot is all-or-nothing; a partial
	// dashboard is worse than an error.
	Snapshot(ctx context.Context) (Snapshot, error)
}

var ErrUnauthorized = errors.New("unauthorized")
