package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/angelmondragon/freightdesk-backend/pkg/db/models"
	"github.com/angelmondragon/freightdesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/freightdesk-backend/pkg/errors"
	"github.com/angelmondragon/freightdesk-backend/pkg/logger"
	"github.com/angelmondragon/freightdesk-backend/pkg/storage/gcs"
)

type mediaRepository interface {
	Create(ctx context.Context, media *models.Media) (*models.Media, error)
	Delete(ctx context.Context, id uuid.UUID) error
	MarkAttached(ctx context.Context, id, ownerID uuid.UUID, at time.Time) error
}

// ObjectStore is the slice of the GCS client the media service needs.
type ObjectStore interface {
	UploadObject(ctx context.Context, bucket, key, contentType string, body io.Reader, size int64) (gcs.ObjectInfo, error)
	DeleteObject(ctx context.Context, bucket, key string) error
	PublicURL(bucket, key string) string
}

// UploadInput describes one file handed to Upload.
type UploadInput struct {
	UserID       uuid.UUID
	Kind         enums.MediaKind
	KeyPrefix    string
	FileName     string
	DeclaredType string
	Size         int64
	Body         io.Reader
	// AttachTo marks the row attached to this owner once stored. Leave nil
	// when the caller attaches it inside its own transaction.
	AttachTo *uuid.UUID
}

// Service validates uploads, stores them and tracks them in the media table.
type Service struct {
	repo     mediaRepository
	store    ObjectStore
	bucket   string
	maxBytes int64
	logg     *logger.Logger
	now      func() time.Time
}

// NewService constructs a media service backed by the repository and object store.
func NewService(repo mediaRepository, store ObjectStore, bucket string, maxBytes int64, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("media repository required")
	}
	if store == nil {
		return nil, fmt.Errorf("object store required")
	}
	if bucket == "" {
		return nil, fmt.Errorf("bucket required")
	}
	if maxBytes <= 0 {
		return nil, fmt.Errorf("max upload size must be positive")
	}
	return &Service{
		repo:     repo,
		store:    store,
		bucket:   bucket,
		maxBytes: maxBytes,
		logg:     logg,
		now:      time.Now,
	}, nil
}

// MaxBytes is the largest accepted upload.
func (s *Service) MaxBytes() int64 {
	return s.maxBytes
}

// Upload validates the file, writes a pending media row, then stores the
// object. When storing fails the row is removed again so nothing refers to
// a missing object.
func (s *Service) Upload(ctx context.Context, in UploadInput) (*models.Media, error) {
	if in.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if in.Body == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file is required")
	}
	fileName := strings.TrimSpace(in.FileName)
	if fileName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file name is required")
	}

	head := make([]byte, SniffLen)
	n, err := io.ReadFull(in.Body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read upload")
	}
	head = head[:n]

	mimeType, err := ValidateUpload(UploadCheck{
		Kind:         in.Kind,
		DeclaredType: in.DeclaredType,
		Size:         in.Size,
		MaxBytes:     s.maxBytes,
		Head:         head,
	})
	if err != nil {
		return nil, err
	}

	key := BuildObjectKey(in.KeyPrefix, fileName)
	publicURL := s.store.PublicURL(s.bucket, key)
	row := &models.Media{
		ID:        uuid.New(),
		UserID:    in.UserID,
		Kind:      in.Kind,
		Status:    enums.MediaStatusPending,
		ObjectKey: key,
		FileName:  fileName,
		MimeType:  mimeType,
		SizeBytes: in.Size,
		URL:       &publicURL,
		CreatedAt: s.now().UTC(),
	}
	if _, err := s.repo.Create(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist media row")
	}

	body := &capReader{r: io.MultiReader(bytes.NewReader(head), in.Body), remaining: s.maxBytes}
	if _, err := s.store.UploadObject(ctx, s.bucket, key, mimeType, body, in.Size); err != nil {
		s.discard(ctx, row)
		if body.exceeded {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "file exceeds the upload limit")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store upload")
	}

	if in.AttachTo != nil {
		at := s.now().UTC()
		if err := s.repo.MarkAttached(ctx, row.ID, *in.AttachTo, at); err != nil {
			// The object is stored and the row stays pending; the orphan
			// cleanup job reclaims both.
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach media")
		}
		row.Status = enums.MediaStatusAttached
		row.OwnerID = in.AttachTo
		row.AttachedAt = &at
	}
	return row, nil
}

// Discard removes a stored object and its row. Missing objects are fine.
func (s *Service) Discard(ctx context.Context, row models.Media) error {
	if err := s.store.DeleteObject(ctx, s.bucket, row.ObjectKey); err != nil {
		return fmt.Errorf("delete object %s: %w", row.ObjectKey, err)
	}
	if err := s.repo.Delete(ctx, row.ID); err != nil {
		return fmt.Errorf("delete media row %s: %w", row.ID, err)
	}
	return nil
}

func (s *Service) discard(ctx context.Context, row *models.Media) {
	if err := s.repo.Delete(ctx, row.ID); err != nil && s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"media_id":   row.ID.String(),
			"object_key": row.ObjectKey,
		})
		s.logg.Error(logCtx, "failed to remove media row after upload failure", err)
	}
}

// BuildObjectKey returns <prefix>/<ulid>-<sanitized name>.
func BuildObjectKey(prefix, fileName string) string {
	id := ulid.Make().String()
	clean := sanitizeFileName(fileName)
	name := id
	if clean != "" {
		name = id + "-" + clean
	}
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

func sanitizeFileName(name string) string {
	if name == "" {
		return ""
	}
	clean := path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if clean == "." || clean == "/" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(clean))
	for _, r := range clean {
		switch {
		case r == '/' || r == '\\' || unicode.IsControl(r):
			continue
		case unicode.IsSpace(r):
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-_.")
}

var errUploadTooLarge = errors.New("upload exceeds size limit")

// capReader fails once more than remaining bytes have been read, so a
// client cannot stream past the limit by under-reporting its size.
type capReader struct {
	r         io.Reader
	remaining int64
	exceeded  bool
}

func (c *capReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.remaining -= int64(n)
	if c.remaining < 0 {
		c.exceeded = true
		return n, errUploadTooLarge
	}
	return n, err
}
