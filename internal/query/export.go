// Flat tabular export of a complaint view, for the admin CSV download.
package query

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

// exportHeader is the fixed column set of the export projection.
var exportHeader = []string{"id", "title", "status", "category", "department", "age_days"}

// WriteCSV writes the read-only projection of rows to w, one record per
// complaint, in the order given (callers pass an already filtered/sorted
// view from Apply). Age is whole days since creation at the given instant.
func WriteCSV(w io.Writer, rows []Row, now time.Time) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, r := range rows {
		c := r.Complaint
		age := int(now.Sub(c.CreatedAt).Hours() / 24)
		if age < 0 {
			age = 0
		}
		rec := []string{c.ID, c.Title, c.Status, c.Category, c.Department, strconv.Itoa(age)}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
