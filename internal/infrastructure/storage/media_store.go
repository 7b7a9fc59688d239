package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/mindmate/companion-api/internal/core/domain"
	"github.com/mindmate/companion-api/internal/pkg/datauri"
)

const maxMediaBytes = 8 << 20

var imageExt = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// MediaStore implements ports.MediaStore. Objects are keyed
// turns/<user_id>/<uuid><ext> and referenced as <bucket>/<key>.
type MediaStore struct {
	objects ObjectStorage
}

func NewMediaStore(objects ObjectStorage) *MediaStore {
	return &MediaStore{objects: objects}
}

func (s *MediaStore) SaveDataURI(ctx context.Context, userID, uri string) (string, error) {
	mime, data, err := datauri.Decode(uri)
	if err != nil {
		return "", err
	}
	if len(data) > maxMediaBytes {
		return "", fmt.Errorf("media too large: %d bytes", len(data))
	}
	ext, ok := imageExt[strings.ToLower(mime)]
	if !ok {
		return "", fmt.Errorf("unsupported media type %q", mime)
	}

	key := "turns/" + userID + "/" + uuid.NewString() + ext
	if err := s.objects.Put(ctx, key, bytes.NewReader(data), int64(len(data)), mime); err != nil {
		return "", fmt.Errorf("store media: %w", err)
	}
	return s.objects.Bucket() + "/" + key, nil
}

// Open streams a stored object back to its owner. ref must have been
// returned by SaveDataURI for the same user.
func (s *MediaStore) Open(ctx context.Context, userID, ref string) (io.ReadCloser, string, error) {
	key, ok := strings.CutPrefix(ref, s.objects.Bucket()+"/")
	if !ok || !strings.HasPrefix(key, "turns/"+userID+"/") || strings.Contains(key, "..") {
		return nil, "", domain.ErrMediaNotFound
	}
	mime := "application/octet-stream"
	for m, ext := range imageExt {
		if strings.HasSuffix(key, ext) {
			mime = m
			break
		}
	}
	rc, err := s.objects.Get(ctx, key)
	if err != nil {
		return nil, "", fmt.Errorf("open media: %w", err)
	}
	return rc, mime, nil
}
