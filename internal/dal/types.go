package dal

import "github.com/Billy-Davies-2/wordrush/internal/models"

// ResultsDAL archives finished rounds. Live room state never goes through it.
type ResultsDAL interface {
	SaveRoundResult(result *models.RoundResult) error
	// ListRoundResults returns the newest results for roomID first. An empty
	// roomID lists every room.
	ListRoundResults(roomID string, limit int) ([]models.RoundResult, error)
	Close() error
}

const defaultListLimit = 20

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return defaultListLimit
	}
	return limit
}
