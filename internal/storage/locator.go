package storage

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

const uploadMarker = "/" + DeliveryUpload + "/"

// tailPattern matches what follows the upload marker:
// an optional version segment, the public id, and an optional extension.
var tailPattern = regexp.MustCompile(`^(?:v(\d+)/)?([^?#]+?)(?:\.([A-Za-z0-9]{1,10}))?$`)

// Locator is the parsed form of a stored file reference such as
// https://host/bucket/raw/upload/v12/submissions/a/b/c.pdf
type Locator struct {
	Raw          string
	ResourceType string // segment right before the upload marker, may be empty
	DeliveryType string
	Version      string
	PublicID     string
	Format       string // lower-cased extension, empty when the reference has none
}

// ParseLocator extracts the storage public identifier from a file reference.
// References without an upload marker, or with nothing after it, are rejected.
func ParseLocator(ref string) (Locator, error) {
	ref = strings.TrimSpace(ref)
	idx := markerIndex(ref)
	if ref == "" || idx < 0 {
		return Locator{}, ErrInvalidLocator
	}

	tail := ref[idx+len(uploadMarker):]
	if cut := strings.IndexAny(tail, "?#"); cut >= 0 {
		tail = tail[:cut]
	}
	m := tailPattern.FindStringSubmatch(tail)
	if m == nil || strings.Trim(m[2], "/") == "" {
		return Locator{}, fmt.Errorf("%w: %q", ErrInvalidLocator, ref)
	}

	loc := Locator{
		Raw:          ref,
		DeliveryType: DeliveryUpload,
		Version:      m[1],
		PublicID:     strings.Trim(m[2], "/"),
		Format:       strings.ToLower(m[3]),
	}
	if head := ref[:idx]; head != "" {
		loc.ResourceType = path.Base(head)
	}
	return loc, nil
}

// markerIndex finds the upload marker that ends the category prefix: the
// first one preceded by a known resource category, else the first one.
// Public ids may themselves contain an upload/ folder.
func markerIndex(ref string) int {
	first := -1
	for offset := 0; ; {
		i := strings.Index(ref[offset:], uploadMarker)
		if i < 0 {
			return first
		}
		i += offset
		if first < 0 {
			first = i
		}
		if resourceTypes[path.Base(ref[:i])] {
			return i
		}
		offset = i + 1
	}
}

// Ref returns the asset reference of the locator under the given resource type.
func (l Locator) Ref(resourceType, format string) AssetRef {
	return AssetRef{
		PublicID:     l.PublicID,
		Format:       format,
		ResourceType: resourceType,
		DeliveryType: DeliveryUpload,
	}
}

// ObjectKeyFor maps an asset reference onto its object key:
// <resourceType>/<deliveryType>/<publicId>[.<format>]
func ObjectKeyFor(ref AssetRef) string {
	resourceType := ref.ResourceType
	if resourceType == "" {
		resourceType = ResourceImage
	}
	deliveryType := ref.DeliveryType
	if deliveryType == "" {
		deliveryType = DeliveryUpload
	}
	key := path.Join(resourceType, deliveryType, ref.PublicID)
	if ref.Format != "" {
		key += "." + ref.Format
	}
	return key
}
