package blob

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"mindsy/internal/util"
)

// Store is the object-storage boundary: uploaded sources and generated
// artifacts live behind it, keyed by user-scoped paths.
type Store interface {
	Upload(ctx context.Context, key string, r io.Reader) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// ArtifactKey builds the deterministic path for a generated artifact:
// {userID}/{millis}-{slug}.{ext}. The leading user id segment doubles as the
// ownership boundary checked by the file endpoints.
func ArtifactKey(userID, title, ext string, at time.Time) string {
	return fmt.Sprintf("%s/%d-%s.%s", userID, at.UnixMilli(), util.SanitizeTitle(title), ext)
}

// OwnedBy reports whether a storage key belongs to the given user. Keys are
// rooted at the owner's id, so the first path segment must match exactly.
func OwnedBy(key, userID string) bool {
	if userID == "" {
		return false
	}
	seg, _, _ := strings.Cut(strings.TrimPrefix(key, "/"), "/")
	return seg == userID
}

// ContentTypeForKey infers a response content type from the key extension.
func ContentTypeForKey(key string) string {
	s := strings.ToLower(strings.TrimSpace(key))
	if i := strings.Index(s, "?"); i >= 0 {
		s = s[:i]
	}
	switch {
	case strings.HasSuffix(s, ".pdf"):
		return "application/pdf"
	case strings.HasSuffix(s, ".md"):
		return "text/markdown; charset=utf-8"
	case strings.HasSuffix(s, ".txt"):
		return "text/plain; charset=utf-8"
	case strings.HasSuffix(s, ".json"):
		return "application/json"
	case strings.HasSuffix(s, ".mp3"):
		return "audio/mpeg"
	case strings.HasSuffix(s, ".m4a"):
		return "audio/mp4"
	case strings.HasSuffix(s, ".wav"):
		return "audio/wav"
	case strings.HasSuffix(s, ".webm"):
		return "audio/webm"
	case strings.HasSuffix(s, ".ogg"):
		return "audio/ogg"
	default:
		return "application/octet-stream"
	}
}
