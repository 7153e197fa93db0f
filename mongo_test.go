package dbobj

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestCreateMongoFilter(t *testing.T) {
	filter := createMongoFilter([]Cond{{Column: "qty", Value: int64(2)}, {Column: "name", Value: "a"}})
	assert.Equal(t, bson.D{{Key: "qty", Value: int64(2)}, {Key: "name", Value: "a"}}, filter)

	assert.Equal(t, bson.D{}, createMongoFilter(nil))
}

func TestCreateMongoProjection(t *testing.T) {
	assert.Equal(t, bson.D{{Key: "_id", Value: 0}}, createMongoProjection(Query{}))
	assert.Equal(t, bson.D{{Key: "_id", Value: 0}}, createMongoProjection(Query{Columns: []string{"*"}}))
	assert.Equal(t,
		bson.D{{Key: "_id", Value: 0}, {Key: "name", Value: 1}, {Key: "id", Value: 1}},
		createMongoProjection(Query{Columns: []string{"name", "id"}}),
	)
}

func TestCreateMongoUpdate(t *testing.T) {
	update := createMongoUpdate(sqlItemDef, Row{"qty": int64(1), "name": "a", "zz": true})
	want := bson.D{{Key: "$set", Value: bson.D{
		{Key: "name", Value: "a"},
		{Key: "qty", Value: int64(1)},
		{Key: "zz", Value: true},
	}}}
	assert.Equal(t, want, update)
}

func TestRowFromDocument(t *testing.T) {
	row := rowFromDocument(bson.M{"id": int32(4), "score": float32(1.5), "name": "x"})
	assert.Equal(t, Row{"id": int64(4), "score": float64(1.5), "name": "x"}, row)
}

func TestWrapMongoError(t *testing.T) {
	assert.Nil(t, wrapMongoError(nil))
	assert.ErrorIs(t, wrapMongoError(mongo.ErrNoDocuments), ErrKeyNotFound)

	dup := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "dup"}}}
	assert.ErrorIs(t, wrapMongoError(dup), ErrKeyAlreadyExists)

	other := errors.New("other")
	assert.Equal(t, other, wrapMongoError(other))
}
