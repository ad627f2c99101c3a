package blob

import (
	"context"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// Store persists objects and returns a URL the display layer can render.
type Store interface {
	Put(ctx context.Context, objectPath string, data []byte, contentType string) (string, error)
}

// ObjectPath builds "<dir>/<prefix><slug(name)>-<owner><ext>". Slugging is
// lossy ("21/01" and "21-01" agree), so owner must be the id of the record
// the object belongs to; two records never share a key. Names that slugify to
// nothing leave only the owner, and an empty owner gets a random key.
func ObjectPath(dir, prefix, name, owner, ext string) string {
	parts := make([]string, 0, 2)
	if key := slug.Make(name); key != "" {
		parts = append(parts, key)
	}
	if id := slug.Make(owner); id != "" {
		parts = append(parts, id)
	}
	if len(parts) == 0 {
		parts = append(parts, uuid.NewString())
	}
	return path.Join(dir, prefix+strings.Join(parts, "-")+ext)
}
