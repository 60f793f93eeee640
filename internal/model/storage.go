package model

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// AvatarStorage stores profile avatars and returns their public URL.
type AvatarStorage interface {
	UploadAvatar(ctx context.Context, userID uuid.UUID, contentType string, size int64, reader io.Reader) (string, error)
	DeleteAvatar(ctx context.Context, key string) error
}
