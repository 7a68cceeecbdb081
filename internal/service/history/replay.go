package history

import (
	"log"

	"housingsweep/internal/model"
	"housingsweep/internal/service/seen"
)

// Replay merges recorded observations, oldest first, into store so it ends
// up holding the latest state of every ward. Rows whose payload cannot be
// decoded are skipped and counted.
func Replay(rows []model.WardObservationPG, store *seen.Store) (merged, skipped int) {
	for i := range rows {
		w, err := Decode(&rows[i])
		if err != nil {
			log.Printf("History: skipping observation: %v", err)
			skipped++
			continue
		}
		store.Merge(w)
		merged++
	}
	return merged, skipped
}
