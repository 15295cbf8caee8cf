package publish

import (
	"context"
	"io"
)

// Transport performs the actual "publish as this account" action with raw
// media bytes and a caption. Black box with two outcomes: nil or an error.
type Transport interface {
	Publish(ctx context.Context, userID int64, media io.Reader, caption string) error
}
