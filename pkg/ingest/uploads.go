package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/japaniel/creamy/pkg/images"
	"github.com/japaniel/creamy/pkg/upload"
)

// Uploads deletes upload records together with their stored images.
// Image removal is best effort: failures are logged and the record
// deletion still stands.
type Uploads struct {
	Store  upload.Store
	Images images.Store
	Logger *slog.Logger
}

func (u *Uploads) logger() *slog.Logger {
	if u.Logger == nil {
		return slog.Default()
	}
	return u.Logger
}

// Delete removes the record with id and then its image. Another record may
// share the filename; its image is removed as well.
func (u *Uploads) Delete(ctx context.Context, id string) (upload.Record, error) {
	rec, err := u.Store.Delete(ctx, id)
	if err != nil {
		return upload.Record{}, err
	}
	if err := u.Images.Delete(ctx, rec.Filename); err != nil {
		u.logger().WarnContext(ctx, "could not remove image", "id", rec.ID, "filename", rec.Filename, "error", err)
	}
	return rec, nil
}

// DeleteAll removes every record and then every stored image. It returns
// the number of records removed.
func (u *Uploads) DeleteAll(ctx context.Context) (int, error) {
	recs, err := u.Store.DeleteAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete uploads: %w", err)
	}
	removed, err := u.Images.DeleteAll(ctx)
	if err != nil {
		u.logger().WarnContext(ctx, "could not remove all images", "removed", removed, "error", err)
	}
	return len(recs), nil
}
