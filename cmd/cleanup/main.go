package main

import (
	"context"
	"log"
	"time"

	"facility-report/internal/config"
	"facility-report/internal/features/upload"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type mongoRefs struct {
	collection *mongo.Collection
}

func (m *mongoRefs) ListImagePaths(ctx context.Context) ([]string, error) {
	cursor, err := m.collection.Find(ctx,
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

// One-shot orphan sweep over the upload directory; the API server runs the
// same sweep on a schedule.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(ctx)

	refs := &mongoRefs{
		collection: client.Database(cfg.DBName).Collection("reports"),
	}

	storage := upload.NewStorage(cfg, logger)
	sweeper := upload.NewSweeper(storage, refs, cfg, logger)

	removed, err := sweeper.Sweep(ctx)
	if err != nil {
		log.Fatalf("Sweep failed: %v", err)
	}

	log.Printf("Sweep complete, removed %d orphan files", removed)
}
