package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// Default expiry duration for presigned URLs
const DefaultPresignedURLExpiry = 15 * time.Minute

// Resource categories and delivery types used in object keys and locators.
const (
	ResourceImage = "image"
	ResourceRaw   = "raw"
	ResourceVideo = "video"

	DeliveryUpload = "upload"
)

var resourceTypes = map[string]bool{
	ResourceImage: true,
	ResourceRaw:   true,
	ResourceVideo: true,
}

var (
	ErrInvalidLocator   = errors.New("file reference is not a recognised storage locator")
	ErrEmptyArchive     = errors.New("archive request has no public ids")
	ErrArchiveNotFound  = errors.New("no stored object matches the archive request")
	ErrInvalidArchive   = errors.New("archive token is invalid or expired")
	ErrUnexpectedStatus = errors.New("unexpected upstream status")
	ErrObjectTooLarge   = errors.New("upstream object exceeds size limit")
)

// AssetRef addresses one stored object by its public identifier.
type AssetRef struct {
	PublicID     string
	Format       string // extension without the dot, may be empty
	ResourceType string
	DeliveryType string
}

// ArchiveRequest describes a ZIP export of one or more stored objects.
type ArchiveRequest struct {
	PublicIDs      []string
	ResourceType   string
	FlattenFolders bool
}

// MediaStorage defines the object storage operations the services rely on.
type MediaStorage interface {
	// PresignedUploadURL creates a temporary URL that allows a PUT of objectKey.
	PresignedUploadURL(ctx context.Context, objectKey string, contentType string, expires time.Duration) (string, error)

	// PrivateDownloadURL creates a temporary URL that allows a GET of the asset.
	PrivateDownloadURL(ctx context.Context, ref AssetRef, expires time.Duration) (string, error)

	// ZipDownloadURL builds a signed URL that streams the requested assets as a ZIP.
	ZipDownloadURL(req ArchiveRequest) (string, error)

	// LocatorFor returns the public locator URL stored as a file reference.
	LocatorFor(objectKey string) string

	// WriteArchive writes every object matched by req into a ZIP on w and
	// returns the number of entries written.
	WriteArchive(ctx context.Context, req ArchiveRequest, w io.Writer) (int, error)

	// DeleteObject removes an object from the storage provider.
	DeleteObject(ctx context.Context, objectKey string) error
}
