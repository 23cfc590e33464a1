package port

import (
	"context"
	"io"
	"time"
)

// ArchiveStorage keeps serialized responses and hands out links to them.
type ArchiveStorage interface {
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) (string, error)
	PresignGet(ctx context.Context, key string, expiresIn time.Duration) (string, error)
}
