package storage

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
)

type openFunc func(ctx context.Context, key string) (io.ReadCloser, error)

// writeZip copies each key into a ZIP written on w. Duplicate entry names
// (possible when folders are flattened) get a numeric suffix. Nothing is
// written when keys is empty.
func writeZip(ctx context.Context, keys []string, req ArchiveRequest, open openFunc, w io.Writer) (int, error) {
	if len(keys) == 0 {
		return 0, ErrArchiveNotFound
	}
	zw := zip.NewWriter(w)
	seen := make(map[string]int, len(keys))
	written := 0

	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		name := uniqueName(entryName(key, req), seen)
		if err := copyEntry(ctx, zw, name, key, open); err != nil {
			return written, err
		}
		written++
	}

	if err := zw.Close(); err != nil {
		return written, fmt.Errorf("close zip: %w", err)
	}
	return written, nil
}

func copyEntry(ctx context.Context, zw *zip.Writer, name, key string, open openFunc) error {
	rc, err := open(ctx, key)
	if err != nil {
		return err
	}
	defer rc.Close()

	dst, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("create zip entry %q: %w", name, err)
	}
	if _, err := io.Copy(dst, rc); err != nil {
		return fmt.Errorf("copy %q: %w", key, err)
	}
	return nil
}

// entryName strips the <resourceType>/<deliveryType>/ prefix, and every
// folder when the request flattens them.
func entryName(key string, req ArchiveRequest) string {
	if req.FlattenFolders {
		return path.Base(key)
	}
	prefix := ObjectKeyFor(AssetRef{ResourceType: req.ResourceType, DeliveryType: DeliveryUpload}) + "/"
	return strings.TrimPrefix(key, prefix)
}

func uniqueName(name string, seen map[string]int) string {
	n := seen[name]
	seen[name] = n + 1
	if n == 0 {
		return name
	}
	ext := path.Ext(name)
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(name, ext), n, ext)
}
