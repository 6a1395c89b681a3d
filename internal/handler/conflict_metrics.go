package handler

import (
	"errors"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/service"
)

// observeConflict counts rejected proposals by dimension when the error
// carries conflict details.
func observeConflict(metrics *service.MetricsService, err error) {
	var conflictErr *models.SessionConflictError
	if errors.As(err, &conflictErr) {
		metrics.RecordConflict(conflictErr.Type)
	}
}
