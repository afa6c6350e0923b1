package mongo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/alert"
)

type fakeCollection struct {
	docs []interface{}
	err  error
}

func (c *fakeCollection) InsertOne(_ context.Context, doc interface{}, _ ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	if c.err != nil {
		return nil, c.err
	}
	c.docs = append(c.docs, doc)
	return &mongo.InsertOneResult{InsertedID: len(c.docs)}, nil
}

func TestForwardStoresDocument(t *testing.T) {
	coll := &fakeCollection{}
	a := newArchive(coll)
	at := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	a.now = func() time.Time { return at }

	evt := alert.LowStockEvent{AlertID: "a1", IngredientID: "i1", IngredientName: "Milk", Quantity: 1, MinimumQuantity: 5}
	require.NoError(t, a.Forward(context.Background(), evt))

	require.Len(t, coll.docs, 1)
	doc := coll.docs[0].(Document)
	assert.Equal(t, "stock.low", doc.Event)
	assert.Equal(t, at, doc.ArchivedAt)
	assert.Equal(t, evt, doc.Payload)
}

func TestDocumentEncodesEventWithBSONTags(t *testing.T) {
	evt := alert.LowStockEvent{AlertID: "a1", IngredientName: "Milk"}
	raw, err := bson.Marshal(Document{Event: evt.EventName(), Payload: evt})
	require.NoError(t, err)

	var decoded struct {
		Event   string `bson:"event"`
		Payload struct {
			AlertID        string `bson:"alertId"`
			IngredientName string `bson:"ingredientName"`
		} `bson:"payload"`
	}
	require.NoError(t, bson.Unmarshal(raw, &decoded))
	assert.Equal(t, "stock.low", decoded.Event)
	assert.Equal(t, "a1", decoded.Payload.AlertID)
	assert.Equal(t, "Milk", decoded.Payload.IngredientName)
}

func TestForwardWrapsInsertError(t *testing.T) {
	boom := errors.New("no primary")
	a := newArchive(&fakeCollection{err: boom})

	err := a.Forward(context.Background(), alert.LowStockEvent{})

	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "stock.low")
}

func TestConnectValidatesArguments(t *testing.T) {
	_, err := Connect(context.Background(), "", "kitchen")
	assert.Error(t, err)
}

func TestCloseWithoutClient(t *testing.T) {
	assert.NoError(t, newArchive(&fakeCollection{}).Close(context.Background()))
}
