package jobs

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Sweeper periodically deletes expired blacklisted tokens and coupons. The
// TTL indexes do the same eventually; the sweep keeps the collections tight
// and doubles as a safety net when indexes are missing. Failures are logged
// and never stop the loop.
type Sweeper struct {
	Blacklist *mongo.Collection
	Coupons   *mongo.Collection
	Interval  time.Duration
}

func NewSweeper(client *mongo.Client, database string, interval time.Duration) *Sweeper {
	db := client.Database(database)
	return &Sweeper{
		Blacklist: db.Collection("blacklisted_tokens"),
		Coupons:   db.Collection("coupons"),
		Interval:  interval,
	}
}

// Run blocks until ctx is cancelled, sweeping once per interval.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	now := time.Now()
	filter := bson.M{"expires_at": bson.M{"$lt": now}}

	if result, err := s.Blacklist.DeleteMany(ctx, filter); err != nil {
		log.Printf("sweep: error clearing blacklisted tokens: %v", err)
	} else if result.DeletedCount > 0 {
		log.Printf("sweep: deleted %d expired tokens", result.DeletedCount)
	}

	if result, err := s.Coupons.DeleteMany(ctx, filter); err != nil {
		log.Printf("sweep: error clearing coupons: %v", err)
	} else if result.DeletedCount > 0 {
		log.Printf("sweep: deleted %d expired coupons", result.DeletedCount)
	}
}
