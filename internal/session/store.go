// Package session keeps server-side session state keyed by an opaque id
// carried in a cookie.
package session

import (
	"context"
	"errors"

	"github.com/jobtracker/apiserver/types"
)

// ErrNotFound is returned by Get when no live session has the given id.
var ErrNotFound = errors.New("session not found")

// Store persists session data by session id.
type Store interface {
	Get(ctx context.Context, id string) (types.SessionData, error)
	Set(ctx context.Context, id string, data types.SessionData) error
	Destroy(ctx context.Context, id string) error
}
