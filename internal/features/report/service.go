package report

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"facility-report/internal/events"
	"facility-report/internal/features/upload"
	"facility-report/pkg/utils"

	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var (
	ErrNotFound        = errors.New("report not found")
	ErrForbidden       = errors.New("permission denied")
	ErrVersionConflict = errors.New("report was modified by someone else")
	ErrValidation      = errors.New("invalid report")
)

const reportDateLayout = "2006-01-02"

type CreateInput struct {
	Name       string
	Building   string
	RoomNumber string
	Category   string
	Details    string
	ReportDate string
}

// UpdateInput carries only the fields present in the request; nil means
// "leave unchanged". Version, when set, is checked against the stored
// document and stale writes are rejected.
type UpdateInput struct {
	Name       *string
	Building   *string
	RoomNumber *string
	Category   *string
	Details    *string
	ReportDate *string
	Version    *int64
}

type ReportService interface {
	Create(ctx context.Context, input CreateInput, image *multipart.FileHeader, actor *utils.UserClaims) (*Report, error)
	List(ctx context.Context, query ListQuery) ([]Report, int64, error)
	Get(ctx context.Context, id string) (*Report, error)
	Update(ctx context.Context, id string, input UpdateInput, image *multipart.FileHeader, actor *utils.UserClaims) (*Report, error)
	UpdateStatus(ctx context.Context, id, status, note string, version *int64) (*Report, error)
	Delete(ctx context.Context, id string, actor *utils.UserClaims) error
	Counts(ctx context.Context) (*Counts, error)
	ExportXLSX(ctx context.Context) ([]byte, string, error)
}

type ReportServiceImpl struct {
	ReportRepo ReportRepository
	Storage    upload.Storage
	Bus        events.Bus
	Logger     *zap.Logger
}

func NewReportService(reportRepo ReportRepository, storage upload.Storage, bus events.Bus, logger *zap.Logger) ReportService {
	return &ReportServiceImpl{
		ReportRepo: reportRepo,
		Storage:    storage,
		Bus:        bus,
		Logger:     logger,
	}
}

func validateCreate(input CreateInput) error {
	switch {
	case strings.TrimSpace(input.Name) == "":
		return fmt.Errorf("%w: name is required", ErrValidation)
	case strings.TrimSpace(input.RoomNumber) == "":
		return fmt.Errorf("%w: roomNumber is required", ErrValidation)
	case strings.TrimSpace(input.Details) == "":
		return fmt.Errorf("%w: details is required", ErrValidation)
	case !ValidBuilding(input.Building):
		return fmt.Errorf("%w: unknown building %q", ErrValidation, input.Building)
	case !ValidCategory(input.Category):
		return fmt.Errorf("%w: unknown category %q", ErrValidation, input.Category)
	}
	return nil
}

func parseReportDate(value string) (time.Time, error) {
	if value == "" {
		return time.Now(), nil
	}
	parsed, err := time.Parse(reportDateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad reportDate %q", ErrValidation, value)
	}
	return parsed, nil
}

func (s *ReportServiceImpl) Create(ctx context.Context, input CreateInput, image *multipart.FileHeader, actor *utils.UserClaims) (*Report, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	reportDate, err := parseReportDate(input.ReportDate)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	newReport := &Report{
		Name:       strings.TrimSpace(input.Name),
		Building:   input.Building,
		RoomNumber: strings.TrimSpace(input.RoomNumber),
		Category:   input.Category,
		Details:    input.Details,
		ReportDate: reportDate,
		Status:     StatusPending,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if creator, err := primitive.ObjectIDFromHex(actor.UserID); err == nil {
		newReport.CreatedBy = creator
	}

	if image != nil {
		path, err := s.Storage.SaveImage(image)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		newReport.ImagePath = path
	}

	if err := s.ReportRepo.Create(ctx, newReport); err != nil {
		// The document never landed; don't strand the file we just wrote
		s.Storage.RemoveImage(newReport.ImagePath)
		return nil, err
	}

	s.Bus.Publish(events.Event{Name: events.EventReportCreated, Payload: newReport})
	return newReport, nil
}

func (s *ReportServiceImpl) List(ctx context.Context, query ListQuery) ([]Report, int64, error) {
	return s.ReportRepo.List(ctx, query)
}

func (s *ReportServiceImpl) Get(ctx context.Context, id string) (*Report, error) {
	report, err := s.ReportRepo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return report, nil
}

func canModify(report *Report, actor *utils.UserClaims) bool {
	if actor.IsAdmin() {
		return true
	}
	return !report.CreatedBy.IsZero() && report.CreatedBy.Hex() == actor.UserID
}

func (s *ReportServiceImpl) Update(ctx context.Context, id string, input UpdateInput, image *multipart.FileHeader, actor *utils.UserClaims) (*Report, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !canModify(existing, actor) {
		return nil, ErrForbidden
	}

	set := bson.M{"updatedAt": time.Now()}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, fmt.Errorf("%w: name is required", ErrValidation)
		}
		set["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Building != nil {
		if !ValidBuilding(*input.Building) {
			return nil, fmt.Errorf("%w: unknown building %q", ErrValidation, *input.Building)
		}
		set["building"] = *input.Building
	}
	if input.RoomNumber != nil {
		set["roomNumber"] = strings.TrimSpace(*input.RoomNumber)
	}
	if input.Category != nil {
		if !ValidCategory(*input.Category) {
			return nil, fmt.Errorf("%w: unknown category %q", ErrValidation, *input.Category)
		}
		set["category"] = *input.Category
	}
	if input.Details != nil {
		set["details"] = *input.Details
	}
	if input.ReportDate != nil {
		reportDate, err := parseReportDate(*input.ReportDate)
		if err != nil {
			return nil, err
		}
		set["reportDate"] = reportDate
	}

	// Replacement image is written before the document update commits; the
	// old file goes away only after a successful commit.
	newImagePath := ""
	if image != nil {
		newImagePath, err = s.Storage.SaveImage(image)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		set["imagePath"] = newImagePath
	}

	updated, err := s.ReportRepo.Update(ctx, id, input.Version, set)
	if err != nil {
		s.Storage.RemoveImage(newImagePath)
		switch {
		case errors.Is(err, ErrStaleVersion):
			return nil, ErrVersionConflict
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, ErrNotFound
		}
		return nil, err
	}

	if newImagePath != "" && existing.ImagePath != "" {
		s.Storage.RemoveImage(existing.ImagePath)
	}

	s.Bus.Publish(events.Event{Name: events.EventReportUpdated, Payload: updated})
	return updated, nil
}

func (s *ReportServiceImpl) UpdateStatus(ctx context.Context, id, status, note string, version *int64) (*Report, error) {
	if !ValidStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}

	set := bson.M{
		"status":    status,
		"note":      note,
		"updatedAt": time.Now(),
	}

	updated, err := s.ReportRepo.Update(ctx, id, version, set)
	if err != nil {
		switch {
		case errors.Is(err, ErrStaleVersion):
			return nil, ErrVersionConflict
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, ErrNotFound
		}
		return nil, err
	}

	s.Bus.Publish(events.Event{Name: events.EventReportUpdated, Payload: updated})
	return updated, nil
}

func (s *ReportServiceImpl) Delete(ctx context.Context, id string, actor *utils.UserClaims) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if !canModify(existing, actor) {
		return ErrForbidden
	}

	if err := s.ReportRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		return err
	}

	s.Storage.RemoveImage(existing.ImagePath)

	s.Bus.Publish(events.Event{Name: events.EventReportDeleted, Payload: id})
	return nil
}

func (s *ReportServiceImpl) Counts(ctx context.Context) (*Counts, error) {
	return s.ReportRepo.Counts(ctx)
}

var exportColumns = []string{"ID", "Name", "Building", "Room", "Category", "Details", "Report Date", "Status", "Note", "Created At"}

func (s *ReportServiceImpl) ExportXLSX(ctx context.Context) ([]byte, string, error) {
	reports, _, err := s.ReportRepo.List(ctx, ListQuery{})
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Reports"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, "", err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	for i, col := range exportColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, col)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for rowIdx, report := range reports {
		values := []interface{}{
			report.ID.Hex(),
			report.Name,
			report.Building,
			report.RoomNumber,
			report.Category,
			report.Details,
			report.ReportDate.Format(reportDateLayout),
			report.Status,
			report.Note,
			report.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for colIdx, val := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheetName, cell, val)
		}
	}

	for i := range exportColumns {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, col, col, 18)
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("reports-%s.xlsx", time.Now().Format(reportDateLayout))
	return buffer.Bytes(), filename, nil
}
