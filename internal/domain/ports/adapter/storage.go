package adapter

import (
	"context"
	"io"
)

// ObjectStorage uploads user-submitted images to the cloud image host and
// returns a publicly reachable URL.
type ObjectStorage interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (url string, err error)
}
