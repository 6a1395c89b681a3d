package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/export"
)

type roomSessionLister interface {
	ListByRoom(ctx context.Context, roomID string) ([]models.Session, error)
}

// ExportService renders room timetables as downloadable documents.
type ExportService struct {
	sessions roomSessionLister
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	logger   *zap.Logger
}

// NewExportService wires the exporters.
func NewExportService(sessions roomSessionLister, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		sessions: sessions,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		logger:   logger,
	}
}

// ExportResult carries the rendered document and its HTTP metadata.
type ExportResult struct {
	Content     []byte
	ContentType string
	Filename    string
}

// ExportRoomTimetable renders a room's weekly timetable in the requested
// format ("csv" or "pdf"), ordered by teaching day then start time.
func (s *ExportService) ExportRoomTimetable(ctx context.Context, roomID, format string) (*ExportResult, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != "csv" && format != "pdf" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	sessions, err := s.sessions.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room sessions")
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		if sessions[i].Weekday != sessions[j].Weekday {
			return sessions[i].Weekday.Order() < sessions[j].Weekday.Order()
		}
		return sessions[i].StartTime.Minutes() < sessions[j].StartTime.Minutes()
	})

	dataset := export.Dataset{
		Headers: []string{"Day", "Start", "End", "Subject", "Teacher"},
	}
	for _, session := range sessions {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Day":     string(session.Weekday),
			"Start":   session.StartTime.String(),
			"End":     session.EndTime.String(),
			"Subject": session.SubjectID,
			"Teacher": session.TeacherID,
		})
	}

	switch format {
	case "pdf":
		content, err := s.pdf.Render(dataset, fmt.Sprintf("Room %s timetable", roomID))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportResult{Content: content, ContentType: "application/pdf", Filename: fmt.Sprintf("room-%s-timetable.pdf", roomID)}, nil
	default:
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportResult{Content: content, ContentType: "text/csv", Filename: fmt.Sprintf("room-%s-timetable.csv", roomID)}, nil
	}
}
