// Package export writes build history in formats meant for spreadsheets.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"buildwatch/internal/models"
)

// StartLayout formats the start column.
const StartLayout = "2006-01-02 15:04:05"

var header = []string{"number", "result", "start", "duration", "description"}

// WriteCSV writes one row per build in build-number order. Start times are
// rendered in loc, or local time when loc is nil.
func WriteCSV(w io.Writer, builds models.BuildCollection, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, b := range builds.Sorted() {
		row := []string{
			strconv.Itoa(b.Number),
			string(b.Result),
			time.UnixMilli(b.Timestamp).In(loc).Format(StartLayout),
			strconv.FormatInt(b.Duration, 10),
			description(b.Description),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", b.Number, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Filename is the attachment name used for a pipeline's export.
func Filename(pipelineID string) string {
	return pipelineID + "_builds.csv"
}

func description(d *string) string {
	if d == nil {
		return ""
	}
	return strings.Map(func(r rune) rune {
		if r < 1 || r > 127 {
			return -1
		}
		return r
	}, *d)
}
