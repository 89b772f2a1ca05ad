package object

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Get and Delete when no object exists under the key.
var ErrNotFound = errors.New("object not found")

// Store is the storage gateway for uploaded document bytes.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Key builds the storage key for a file inside an organization: "{organization_id}_{filename}".
func Key(orgID uuid.UUID, fileName string) string {
	return fmt.Sprintf("%s_%s", orgID, fileName)
}
