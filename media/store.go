package media

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/oklog/ulid/v2"
)

// ErrInvalidName is returned for names that could escape the store root.
var ErrInvalidName = errors.New("media: invalid object name")

// Store persists uploaded assets under opaque names.
type Store interface {
	Save(ctx context.Context, name, contentType string, r io.Reader) error
	// Delete removes name. A missing object is not an error.
	Delete(ctx context.Context, name string) error
	// URL is the public address a client uses to fetch name.
	URL(name string) string
}

// NewName returns a fresh collision-resistant object name whose
// extension matches contentType.
func NewName(contentType string) string {
	name := strings.ToLower(ulid.Make().String())
	if m := mimetype.Lookup(contentType); m != nil {
		name += m.Extension()
	}
	return name
}

func checkName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return ErrInvalidName
	}
	return nil
}

func joinURL(base, name string) string {
	return strings.TrimRight(base, "/") + "/" + name
}
