package report

import (
	"context"
	"errors"
	"mime/multipart"
	"testing"
	"time"

	"facility-report/internal/events"
	"facility-report/pkg/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type MockReportRepo struct {
	reports map[string]*Report
}

func newMockReportRepo() *MockReportRepo {
	return &MockReportRepo{reports: make(map[string]*Report)}
}

func (m *MockReportRepo) Create(ctx context.Context, report *Report) error {
	if report.ID.IsZero() {
		report.ID = primitive.NewObjectID()
	}
	clone := *report
	m.reports[report.ID.Hex()] = &clone
	return nil
}

func (m *MockReportRepo) Get(ctx context.Context, id string) (*Report, error) {
	if report, ok := m.reports[id]; ok {
		clone := *report
		return &clone, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (m *MockReportRepo) List(ctx context.Context, query ListQuery) ([]Report, int64, error) {
	var out []Report
	for _, report := range m.reports {
		if query.Status != "" && report.Status != query.Status {
			continue
		}
		if query.OwnerID != "" && report.CreatedBy.Hex() != query.OwnerID {
			continue
		}
		out = append(out, *report)
	}
	return out, int64(len(out)), nil
}

func (m *MockReportRepo) Update(ctx context.Context, id string, expectedVersion *int64, set bson.M) (*Report, error) {
	report, ok := m.reports[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	if expectedVersion != nil && report.Version != *expectedVersion {
		return nil, ErrStaleVersion
	}

	for key, value := range set {
		switch key {
		case "name":
			report.Name = value.(string)
		case "building":
			report.Building = value.(string)
		case "roomNumber":
			report.RoomNumber = value.(string)
		case "category":
			report.Category = value.(string)
		case "details":
			report.Details = value.(string)
		case "reportDate":
			report.ReportDate = value.(time.Time)
		case "imagePath":
			report.ImagePath = value.(string)
		case "status":
			report.Status = value.(string)
		case "note":
			report.Note = value.(string)
		case "updatedAt":
			report.UpdatedAt = value.(time.Time)
		}
	}
	report.Version++

	clone := *report
	return &clone, nil
}

func (m *MockReportRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.reports[id]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(m.reports, id)
	return nil
}

func (m *MockReportRepo) Counts(ctx context.Context) (*Counts, error) {
	counts := &Counts{}
	for _, report := range m.reports {
		counts.TotalReports++
		switch report.Status {
		case StatusPending:
			counts.Pending++
		case StatusInProgress:
			counts.InProgress++
		case StatusCompleted:
			counts.Completed++
		}
	}
	return counts, nil
}

func (m *MockReportRepo) ListImagePaths(ctx context.Context) ([]string, error) {
	var paths []string
	for _, report := range m.reports {
		if report.ImagePath != "" {
			paths = append(paths, report.ImagePath)
		}
	}
	return paths, nil
}

func (m *MockReportRepo) EnsureIndexes(ctx context.Context) error { return nil }

type MockStorage struct {
	saved   []string
	removed []string
}

func (m *MockStorage) SaveImage(file *multipart.FileHeader) (string, error) {
	path := "uploads/" + file.Filename
	m.saved = append(m.saved, path)
	return path, nil
}

func (m *MockStorage) RemoveImage(path string) {
	if path != "" {
		m.removed = append(m.removed, path)
	}
}

func (m *MockStorage) Dir() string { return "uploads" }

type CapturingBus struct {
	published []events.Event
}

func (b *CapturingBus) Publish(event events.Event) {
	b.published = append(b.published, event)
}

func (b *CapturingBus) Subscribe() (<-chan events.Event, func()) {
	ch := make(chan events.Event)
	close(ch)
	return ch, func() {}
}

func newTestService() (*ReportServiceImpl, *MockReportRepo, *MockStorage, *CapturingBus) {
	repo := newMockReportRepo()
	storage := &MockStorage{}
	bus := &CapturingBus{}
	service := &ReportServiceImpl{
		ReportRepo: repo,
		Storage:    storage,
		Bus:        bus,
		Logger:     zap.NewNop(),
	}
	return service, repo, storage, bus
}

func userClaims(id primitive.ObjectID) *utils.UserClaims {
	return &utils.UserClaims{UserID: id.Hex(), Role: "user"}
}

func adminClaims() *utils.UserClaims {
	return &utils.UserClaims{UserID: primitive.NewObjectID().Hex(), Role: "admin"}
}

func validInput() CreateInput {
	return CreateInput{
		Name:       "A",
		Building:   "UB",
		RoomNumber: "101",
		Category:   "ไมค์โครโฟน",
		Details:    "no sound",
		ReportDate: "2024-01-01",
	}
}

func TestCreateDefaultsToPendingAndSetsCreator(t *testing.T) {
	service, _, _, bus := newTestService()
	creator := primitive.NewObjectID()

	created, err := service.Create(context.Background(), validInput(), nil, userClaims(creator))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if created.Status != StatusPending {
		t.Errorf("Status = %q, want %q", created.Status, StatusPending)
	}
	if created.CreatedBy != creator {
		t.Errorf("CreatedBy = %v, want %v", created.CreatedBy, creator)
	}
	if created.ID.IsZero() {
		t.Error("ID not assigned on create")
	}

	if len(bus.published) != 1 || bus.published[0].Name != events.EventReportCreated {
		t.Fatalf("expected one newReport event, got %v", bus.published)
	}
	if bus.published[0].Payload.(*Report).ID != created.ID {
		t.Error("newReport payload is not the created record")
	}
}

func TestCreateRejectsUnknownBuildingAndCategory(t *testing.T) {
	service, _, _, _ := newTestService()

	input := validInput()
	input.Building = "XX"
	if _, err := service.Create(context.Background(), input, nil, adminClaims()); !errors.Is(err, ErrValidation) {
		t.Errorf("unknown building: error = %v, want ErrValidation", err)
	}

	input = validInput()
	input.Category = "printer"
	if _, err := service.Create(context.Background(), input, nil, adminClaims()); !errors.Is(err, ErrValidation) {
		t.Errorf("unknown category: error = %v, want ErrValidation", err)
	}
}

func TestUpdateForbiddenForNonOwner(t *testing.T) {
	service, _, _, _ := newTestService()

	created, err := service.Create(context.Background(), validInput(), nil, userClaims(primitive.NewObjectID()))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	details := "hijacked"
	_, err = service.Update(context.Background(), created.ID.Hex(), UpdateInput{Details: &details}, nil, userClaims(primitive.NewObjectID()))
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("Update() error = %v, want ErrForbidden", err)
	}
}

func TestOwnerPartialEditLeavesOtherFieldsAlone(t *testing.T) {
	service, repo, _, _ := newTestService()
	creator := primitive.NewObjectID()

	created, err := service.Create(context.Background(), validInput(), nil, userClaims(creator))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	details := "speaker crackles"
	updated, err := service.Update(context.Background(), created.ID.Hex(), UpdateInput{Details: &details}, nil, userClaims(creator))
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if updated.ID != created.ID {
		t.Error("id changed across update")
	}
	if updated.Details != details {
		t.Errorf("Details = %q, want %q", updated.Details, details)
	}
	if updated.Building != created.Building || updated.Category != created.Category {
		t.Error("untouched fields changed")
	}
	if updated.CreatedBy != creator {
		t.Error("creator reassigned on update")
	}

	stored, _ := repo.Get(context.Background(), created.ID.Hex())
	if stored.Details != details {
		t.Error("update not persisted")
	}
}

func TestAdminCanEditAnyReport(t *testing.T) {
	service, _, _, _ := newTestService()

	created, err := service.Create(context.Background(), validInput(), nil, userClaims(primitive.NewObjectID()))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	name := "B"
	if _, err := service.Update(context.Background(), created.ID.Hex(), UpdateInput{Name: &name}, nil, adminClaims()); err != nil {
		t.Errorf("admin Update() error = %v", err)
	}
}

func TestUpdateStatusStampsTimestampAndPublishes(t *testing.T) {
	service, _, _, bus := newTestService()

	created, err := service.Create(context.Background(), validInput(), nil, adminClaims())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	updated, err := service.UpdateStatus(context.Background(), created.ID.Hex(), StatusCompleted, "fixed", nil)
	if err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}

	if updated.Status != StatusCompleted {
		t.Errorf("Status = %q, want %q", updated.Status, StatusCompleted)
	}
	if updated.Note != "fixed" {
		t.Errorf("Note = %q, want fixed", updated.Note)
	}
	if updated.UpdatedAt.Before(created.UpdatedAt) {
		t.Error("updatedAt not stamped")
	}

	last := bus.published[len(bus.published)-1]
	if last.Name != events.EventReportUpdated {
		t.Errorf("last event = %q, want %q", last.Name, events.EventReportUpdated)
	}
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	service, _, _, _ := newTestService()

	created, err := service.Create(context.Background(), validInput(), nil, adminClaims())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := service.UpdateStatus(context.Background(), created.ID.Hex(), "approved", "", nil); !errors.Is(err, ErrValidation) {
		t.Errorf("UpdateStatus() error = %v, want ErrValidation", err)
	}
}

func TestStaleVersionRejected(t *testing.T) {
	service, _, _, _ := newTestService()
	creator := primitive.NewObjectID()

	created, err := service.Create(context.Background(), validInput(), nil, userClaims(creator))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// First writer bumps the version
	details := "first edit"
	if _, err := service.Update(context.Background(), created.ID.Hex(), UpdateInput{Details: &details}, nil, userClaims(creator)); err != nil {
		t.Fatalf("first Update() error = %v", err)
	}

	// Second writer still holds the original version
	stale := created.Version
	other := "second edit"
	_, err = service.Update(context.Background(), created.ID.Hex(), UpdateInput{Details: &other, Version: &stale}, nil, userClaims(creator))
	if !errors.Is(err, ErrVersionConflict) {
		t.Errorf("stale Update() error = %v, want ErrVersionConflict", err)
	}
}

func TestDeleteByNonOwnerForbidden(t *testing.T) {
	service, repo, _, _ := newTestService()

	created, err := service.Create(context.Background(), validInput(), nil, userClaims(primitive.NewObjectID()))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := service.Delete(context.Background(), created.ID.Hex(), userClaims(primitive.NewObjectID())); !errors.Is(err, ErrForbidden) {
		t.Errorf("Delete() error = %v, want ErrForbidden", err)
	}
	if _, err := repo.Get(context.Background(), created.ID.Hex()); err != nil {
		t.Error("report removed despite forbidden delete")
	}
}

func TestDeleteMissingReportNotFound(t *testing.T) {
	service, _, _, _ := newTestService()

	err := service.Delete(context.Background(), primitive.NewObjectID().Hex(), adminClaims())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}

func TestDeletePublishesIdAndRemovesImage(t *testing.T) {
	service, repo, storage, bus := newTestService()
	creator := primitive.NewObjectID()

	created, err := service.Create(context.Background(), validInput(), nil, userClaims(creator))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	// Simulate a stored attachment
	repo.reports[created.ID.Hex()].ImagePath = "uploads/old.jpg"

	if err := service.Delete(context.Background(), created.ID.Hex(), userClaims(creator)); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := repo.Get(context.Background(), created.ID.Hex()); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Error("report still present after delete")
	}

	last := bus.published[len(bus.published)-1]
	if last.Name != events.EventReportDeleted {
		t.Errorf("last event = %q, want %q", last.Name, events.EventReportDeleted)
	}
	if last.Payload != created.ID.Hex() {
		t.Errorf("delete payload = %v, want bare id", last.Payload)
	}

	if len(storage.removed) != 1 || storage.removed[0] != "uploads/old.jpg" {
		t.Errorf("removed = %v, want the old image", storage.removed)
	}
}

func TestCountsBucketsSumToTotal(t *testing.T) {
	service, _, _, _ := newTestService()

	for i, status := range []string{StatusPending, StatusPending, StatusInProgress, StatusCompleted} {
		created, err := service.Create(context.Background(), validInput(), nil, adminClaims())
		if err != nil {
			t.Fatalf("Create() %d error = %v", i, err)
		}
		if status != StatusPending {
			if _, err := service.UpdateStatus(context.Background(), created.ID.Hex(), status, "", nil); err != nil {
				t.Fatalf("UpdateStatus() %d error = %v", i, err)
			}
		}
	}

	counts, err := service.Counts(context.Background())
	if err != nil {
		t.Fatalf("Counts() error = %v", err)
	}

	if counts.TotalReports != 4 {
		t.Errorf("TotalReports = %d, want 4", counts.TotalReports)
	}
	if sum := counts.Pending + counts.InProgress + counts.Completed; sum != counts.TotalReports {
		t.Errorf("bucket sum = %d, want %d", sum, counts.TotalReports)
	}
	if counts.Pending != 2 || counts.InProgress != 1 || counts.Completed != 1 {
		t.Errorf("buckets = %+v", counts)
	}
}
