package report

import (
	"context"
	"errors"

	"facility-report/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrStaleVersion is returned when an update carries a version that no
// longer matches the stored document.
var ErrStaleVersion = errors.New("stale report version")

type ReportRepository interface {
	Create(ctx context.Context, report *Report) error
	Get(ctx context.Context, id string) (*Report, error)
	List(ctx context.Context, query ListQuery) ([]Report, int64, error)
	// Update applies set atomically and bumps the version counter. When
	// expectedVersion is non-nil the write only matches that version;
	// a live document at another version yields ErrStaleVersion.
	Update(ctx context.Context, id string, expectedVersion *int64, set bson.M) (*Report, error)
	Delete(ctx context.Context, id string) error
	Counts(ctx context.Context) (*Counts, error)
	ListImagePaths(ctx context.Context) ([]string, error)
	EnsureIndexes(ctx context.Context) error
}

type ReportRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewReportRepository(mongodb *database.MongodbDB) ReportRepository {
	return &ReportRepositoryImpl{
		Collection: mongodb.DB.Collection("reports"),
	}
}

func (r *ReportRepositoryImpl) Create(ctx context.Context, report *Report) error {
	if report.ID.IsZero() {
		report.ID = primitive.NewObjectID()
	}
	_, err := r.Collection.InsertOne(ctx, report)
	return err
}

func (r *ReportRepositoryImpl) Get(ctx context.Context, id string) (*Report, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, mongo.ErrNoDocuments
	}
	var report Report
	if err := r.Collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&report); err != nil {
		return nil, err
	}
	return &report, nil
}

func buildListFilter(query ListQuery) bson.M {
	filter := bson.M{}
	if query.Building != "" {
		filter["building"] = query.Building
	}
	if query.Category != "" {
		filter["category"] = query.Category
	}
	if query.Status != "" {
		filter["status"] = query.Status
	}
	if query.OwnerID != "" {
		if oid, err := primitive.ObjectIDFromHex(query.OwnerID); err == nil {
			filter["createdBy"] = oid
		}
	}
	return filter
}

func (r *ReportRepositoryImpl) List(ctx context.Context, query ListQuery) ([]Report, int64, error) {
	filter := buildListFilter(query)

	total, err := r.Collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if query.Limit > 0 {
		opts.SetLimit(query.Limit)
		if query.Page > 1 {
			opts.SetSkip((query.Page - 1) * query.Limit)
		}
	}

	cursor, err := r.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	reports := []Report{}
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

func (r *ReportRepositoryImpl) Update(ctx context.Context, id string, expectedVersion *int64, set bson.M) (*Report, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, mongo.ErrNoDocuments
	}

	filter := bson.M{"_id": oid}
	if expectedVersion != nil {
		filter["version"] = *expectedVersion
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{
		"$set": set,
		"$inc": bson.M{"version": 1},
	}

	var updated Report
	err = r.Collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err == nil {
		return &updated, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	// No match: either the document is gone or the version is stale
	if expectedVersion != nil {
		if n, countErr := r.Collection.CountDocuments(ctx, bson.M{"_id": oid}); countErr == nil && n > 0 {
			return nil, ErrStaleVersion
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *ReportRepositoryImpl) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return mongo.ErrNoDocuments
	}
	result, err := r.Collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *ReportRepositoryImpl) Counts(ctx context.Context) (*Counts, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":   "$status",
			"count": bson.M{"$sum": 1},
		}}},
	}

	cursor, err := r.Collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var buckets []struct {
		Status string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &buckets); err != nil {
		return nil, err
	}

	counts := &Counts{}
	for _, b := range buckets {
		counts.TotalReports += b.Count
		switch b.Status {
		case StatusPending:
			counts.Pending = b.Count
		case StatusInProgress:
			counts.InProgress = b.Count
		case StatusCompleted:
			counts.Completed = b.Count
		}
	}
	return counts, nil
}

func (r *ReportRepositoryImpl) ListImagePaths(ctx context.Context) ([]string, error) {
	cursor, err := r.Collection.Find(ctx,
		bson.M{"imagePath": bson.M{"$exists": true, "$ne": ""}},
		options.Find().SetProjection(bson.M{"imagePath": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ImagePath string `bson:"imagePath"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(docs))
	for _, d := range docs {
		paths = append(paths, d.ImagePath)
	}
	return paths, nil
}

func (r *ReportRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "createdBy", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	})
	return err
}
