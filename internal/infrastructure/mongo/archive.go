// Package mongo keeps an append-only archive of kitchen events in MongoDB.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/outbox"
)

const defaultCollection = "kitchen_events"

type inserter interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
}

// Document is the stored shape of one archived event.
type Document struct {
	Event      string      `bson:"event"`
	ArchivedAt time.Time   `bson:"archived_at"`
	Payload    interface{} `bson:"payload"`
}

type Archive struct {
	client     *mongo.Client
	collection inserter
	now        func() time.Time
}

// Connect opens a client for uri and pings it before returning.
func Connect(ctx context.Context, uri, database string) (*Archive, error) {
	if uri == "" || database == "" {
		return nil, errors.New("mongo: uri and database are required")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("mongo: ping: %w", err)
	}
	a := newArchive(client.Database(database).Collection(defaultCollection))
	a.client = client
	return a, nil
}

func newArchive(c inserter) *Archive {
	return &Archive{collection: c, now: func() time.Time { return time.Now().UTC() }}
}

func (a *Archive) Name() string { return "mongo" }

func (a *Archive) Forward(ctx context.Context, e outbox.Event) error {
	doc := Document{Event: e.EventName(), ArchivedAt: a.now(), Payload: e}
	if _, err := a.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("mongo: archive %s: %w", e.EventName(), err)
	}
	return nil
}

func (a *Archive) Close(ctx context.Context) error {
	if a.client == nil {
		return nil
	}
	return a.client.Disconnect(ctx)
}
