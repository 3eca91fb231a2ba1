package middleware

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"community-server/apperr"
	"community-server/logging"
	"community-server/media"
)

// multipart framing allowance on top of the file limit
const formOverhead = 64 << 10

// Uploaded describes a file accepted by Upload and already written to the
// media store.
type Uploaded struct {
	Name        string
	ContentType string
	Size        int64
}

type uploadKey struct{}

func UploadedFromContext(ctx context.Context) (Uploaded, bool) {
	u, ok := ctx.Value(uploadKey{}).(Uploaded)
	return u, ok
}

// Upload accepts a single multipart "file" part of at most maxBytes whose
// sniffed content type is in allowed. Rejected files are never written.
// Accepted files are saved under a generated name.
func Upload(store media.Store, maxBytes int64, allowed []string, log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+formOverhead)

		fh, err := c.FormFile("file")
		if err != nil {
			AbortWithError(c, log, fmt.Errorf("%w: %v", apperr.ErrInvalidFile, err))
			return
		}
		if fh.Size > maxBytes {
			AbortWithError(c, log, fmt.Errorf("%w: %d bytes", apperr.ErrInvalidFile, fh.Size))
			return
		}

		f, err := fh.Open()
		if err != nil {
			AbortWithError(c, log, fmt.Errorf("%w: %v", apperr.ErrInvalidFile, err))
			return
		}
		defer f.Close()

		mt, err := sniff(f)
		if err != nil {
			AbortWithError(c, log, err)
			return
		}
		if !allowedType(mt, allowed) {
			log.Warn(ctx, "upload rejected", "detected", mt.String())
			AbortWithError(c, log, fmt.Errorf("%w: %s", apperr.ErrInvalidFile, mt.String()))
			return
		}

		up := Uploaded{Name: media.NewName(mt.String()), ContentType: mt.String(), Size: fh.Size}
		if err := store.Save(ctx, up.Name, up.ContentType, f); err != nil {
			AbortWithError(c, log, fmt.Errorf("save upload: %w", err))
			return
		}

		c.Request = c.Request.WithContext(context.WithValue(ctx, uploadKey{}, up))
		c.Next()
	}
}

// sniff detects the content type and rewinds f.
func sniff(f multipart.File) (*mimetype.MIME, error) {
	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidFile, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind upload: %w", err)
	}
	return mt, nil
}

func allowedType(mt *mimetype.MIME, allowed []string) bool {
	for _, a := range allowed {
		if mt.Is(a) {
			return true
		}
	}
	return false
}
