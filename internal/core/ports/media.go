package ports

import (
	"context"
	"io"
)

// MediaStore persists inline images and returns an object reference.
type MediaStore interface {
	SaveDataURI(ctx context.Context, userID, dataURI string) (string, error)
}

// MediaReader serves stored media back to its owner.
type MediaReader interface {
	Open(ctx context.Context, userID, ref string) (io.ReadCloser, string, error)
}

// SubmissionGuard rejects replays of the same client submission.
type SubmissionGuard interface {
	// Claim returns false when key was already claimed for this user.
	Claim(ctx context.Context, userID, key string) (bool, error)
	// Release forgets key so the same submission may be sent again.
	Release(ctx context.Context, userID, key string) error
}
