package main

import (
	"context"
	"log"
	"os"
	"time"

	"facility-report/internal/config"
	"facility-report/internal/features/user"
	"facility-report/pkg/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Seeds the initial admin account. Safe to run repeatedly: an existing
// account with the same email is left untouched.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		log.Fatal("ADMIN_EMAIL and ADMIN_PASSWORD are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(ctx)

	users := client.Database(cfg.DBName).Collection("users")

	count, err := users.CountDocuments(ctx, bson.M{"email": email})
	if err != nil {
		log.Fatalf("Failed to check existing admin: %v", err)
	}
	if count > 0 {
		log.Printf("Admin %s already exists, nothing to do", email)
		return
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	admin := user.User{
		Email:     email,
		Password:  hashed,
		Role:      user.RoleAdmin,
		CreatedAt: time.Now(),
	}

	if _, err := users.InsertOne(ctx, admin); err != nil {
		log.Fatalf("Failed to insert admin: %v", err)
	}

	log.Printf("Created admin account %s", email)
}
