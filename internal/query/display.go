package query

import (
	"fmt"
	"io"

	"github.com/TobiSchelling/ufosightings/internal/sighting"
)

// NoResultsMessage is printed by DisplayResults for an empty result.
const NoResultsMessage = "No sightings found matching your query, please try again with different parameters."

// DisplayResults writes one record per line, or NoResultsMessage when
// records is empty.
func DisplayResults(w io.Writer, records []sighting.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, NoResultsMessage)
		return err
	}
	for _, r := range records {
		if _, err := fmt.Fprintln(w, r.String()); err != nil {
			return err
		}
	}
	return nil
}
