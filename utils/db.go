package utils

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectDB opens a client and verifies the connection with a ping.
func ConnectDB(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return client, nil
}

// EnsureIndexes creates the uniqueness and TTL indexes the data model relies
// on. Safe to run on every startup; Mongo treats existing indexes as no-ops.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	unique := options.Index().SetUnique(true)
	ttl := options.Index().SetExpireAfterSeconds(0)

	specs := map[string][]mongo.IndexModel{
		"users": {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
		},
		"carts": {
			{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: unique},
		},
		"wishlists": {
			{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: unique},
		},
		"coupons": {
			{Keys: bson.D{{Key: "code", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: ttl},
		},
		"blacklisted_tokens": {
			{Keys: bson.D{{Key: "token_id", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: ttl},
		},
		"addresses": {
			{Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "street", Value: 1},
				{Key: "city", Value: 1},
				{Key: "country", Value: 1},
			}, Options: unique},
		},
		"orders": {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		"products": {
			{Keys: bson.D{{Key: "name", Value: 1}}},
			{Keys: bson.D{{Key: "category_id", Value: 1}}},
		},
	}

	for coll, models := range specs {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return err
		}
	}
	return nil
}
