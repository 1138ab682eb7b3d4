package db

import (
	"strconv"
	"time"

	"github.com/japaniel/creamy/pkg/upload"
)

// uploadRow mirrors a row of the uploads table.
type uploadRow struct {
	ID        int64     `db:"id"`
	Text      string    `db:"text"`
	Filename  string    `db:"filename"`
	CreatedAt time.Time `db:"created_at"`
}

func (r uploadRow) record() upload.Record {
	return upload.Record{
		ID:        strconv.FormatInt(r.ID, 10),
		Text:      r.Text,
		Filename:  r.Filename,
		CreatedAt: r.CreatedAt,
	}
}
