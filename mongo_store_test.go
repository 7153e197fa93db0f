package dbobj

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func newMockMongo(t *testing.T) *mtest.T {
	t.Helper()

	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	t.Cleanup(mt.Close)
	return mt
}

func TestMongoStoreInsert(t *testing.T) {
	mt := newMockMongo(t)

	mt.Run("allocates key from counters", func(mt *mtest.T) {
		store := NewMongoStore(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
				{Key: "_id", Value: "items"},
				{Key: "seq", Value: int64(5)},
			}}),
			mtest.CreateSuccessResponse(),
		)

		id, err := store.Insert(context.Background(), sqlItemDef.WithSchema("shop"), Row{"name": "saw", "qty": int64(1)})
		require.NoError(mt, err)
		assert.Equal(mt, int64(5), id)

		counter := mt.GetStartedEvent()
		require.NotNil(mt, counter)
		assert.Equal(mt, "findAndModify", counter.CommandName)
		assert.Equal(mt, "counters", counter.Command.Lookup("findAndModify").StringValue())
		assert.Equal(mt, "items", counter.Command.Lookup("query", "_id").StringValue())
		assert.Equal(mt, int64(1), counter.Command.Lookup("update", "$inc", "seq").Int64())
		assert.True(mt, counter.Command.Lookup("upsert").Boolean())

		insert := mt.GetStartedEvent()
		require.NotNil(mt, insert)
		assert.Equal(mt, "insert", insert.CommandName)
		assert.Equal(mt, "items", insert.Command.Lookup("insert").StringValue())
	})

	mt.Run("custom counters collection", func(mt *mtest.T) {
		store := NewMongoStore(mt.DB, WithCounterCollection("seqs"))
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{{Key: "seq", Value: int64(1)}}}),
			mtest.CreateSuccessResponse(),
		)

		id, err := store.Insert(context.Background(), sqlItemDef, Row{})
		require.NoError(mt, err)
		assert.Equal(mt, int64(1), id)
		assert.Equal(mt, "seqs", mt.GetStartedEvent().Command.Lookup("findAndModify").StringValue())
	})

	mt.Run("duplicate key", func(mt *mtest.T) {
		store := NewMongoStore(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{{Key: "seq", Value: int64(2)}}}),
			mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key"}),
		)

		_, err := store.Insert(context.Background(), sqlItemDef, Row{"name": "dup"})
		assert.ErrorIs(mt, err, ErrKeyAlreadyExists)
	})
}

func TestMongoStoreFindByKey(t *testing.T) {
	mt := newMockMongo(t)

	mt.Run("found", func(mt *mtest.T) {
		store := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+".items", mtest.FirstBatch, bson.D{
			{Key: "id", Value: int64(3)},
			{Key: "name", Value: "hammer"},
			{Key: "qty", Value: int32(2)},
		}))

		row, err := store.FindByKey(context.Background(), sqlItemDef, 3)
		require.NoError(mt, err)
		assert.Equal(mt, Row{"id": int64(3), "name": "hammer", "qty": int64(2)}, row)
	})

	mt.Run("missing", func(mt *mtest.T) {
		store := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+".items", mtest.FirstBatch))

		row, err := store.FindByKey(context.Background(), sqlItemDef, 4)
		require.NoError(mt, err)
		assert.Nil(mt, row)
	})
}

func TestMongoStoreFind(t *testing.T) {
	mt := newMockMongo(t)

	mt.Run("rows", func(mt *mtest.T) {
		store := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+".items", mtest.FirstBatch,
			bson.D{{Key: "name", Value: "nail"}},
			bson.D{{Key: "name", Value: "tack"}},
		))

		rows, err := store.Find(context.Background(), sqlItemDef, Query{
			Columns: []string{"name"},
			Where:   []Cond{{Column: "qty", Value: int64(2)}},
			Limit:   5,
		})
		require.NoError(mt, err)
		assert.Equal(mt, []Row{{"name": "nail"}, {"name": "tack"}}, rows)

		find := mt.GetStartedEvent()
		require.NotNil(mt, find)
		assert.Equal(mt, "find", find.CommandName)
		assert.Equal(mt, int64(2), find.Command.Lookup("filter", "qty").Int64())
		assert.Equal(mt, int32(1), find.Command.Lookup("projection", "name").Int32())
	})
}

func TestMongoStoreUpdateAndDelete(t *testing.T) {
	mt := newMockMongo(t)

	mt.Run("update", func(mt *mtest.T) {
		store := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: int32(1)},
			bson.E{Key: "nModified", Value: int32(0)},
		))

		n, err := store.Update(context.Background(), sqlItemDef, 9, Row{"qty": int64(4)})
		require.NoError(mt, err)
		assert.Equal(mt, int64(1), n)

		n, err = store.Update(context.Background(), sqlItemDef, 9, Row{})
		require.NoError(mt, err)
		assert.Equal(mt, int64(0), n)
	})

	mt.Run("delete", func(mt *mtest.T) {
		store := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(1)}))

		n, err := store.Delete(context.Background(), sqlItemDef, 9)
		require.NoError(mt, err)
		assert.Equal(mt, int64(1), n)
	})
}

func TestObjectWithMongoStore(t *testing.T) {
	mt := newMockMongo(t)

	mt.Run("save then update", func(mt *mtest.T) {
		obj := New(NewMongoStore(mt.DB), sqlItemDef, WithHooks(NewHooks()))
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{{Key: "seq", Value: int64(11)}}}),
			mtest.CreateSuccessResponse(),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(1)}),
		)

		obj.SetField("name", "rope")
		obj.SetField("qty", "3")
		n, err := obj.Save(context.Background())
		require.NoError(mt, err)
		assert.Equal(mt, int64(1), n)
		assert.Equal(mt, int64(11), obj.ID())

		obj.SetField("qty", 4)
		n, err = obj.Save(context.Background())
		require.NoError(mt, err)
		assert.Equal(mt, int64(1), n)
	})
}
