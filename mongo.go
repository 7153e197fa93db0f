package dbobj

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	mongoOptions "go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore maps each table to a collection. The key column is stored as a
// regular document field holding an integer allocated from a counters
// collection.
type MongoStore struct {
	db       *mongo.Database
	counters string
	tracer   tracer
}

var _ Store = (*MongoStore)(nil)

func NewMongoStore(db *mongo.Database, options ...StoreOption) *MongoStore {
	opt := newStoreOption(options)

	return &MongoStore{
		db:       db,
		counters: opt.counters,
		tracer: tracer{
			logger:        opt.logger.With(zapDriver("mongo")),
			slowThreshold: opt.slowThreshold,
		},
	}
}

// collectionName names both the table's collection and its sequence in the
// counters collection.
func collectionName(td TableDef) string {
	return td.Name
}

func (m *MongoStore) collection(td TableDef) *mongo.Collection {
	return m.db.Collection(collectionName(td))
}

func (m *MongoStore) FindByKey(ctx context.Context, td TableDef, id int64) (Row, error) {
	filter := bson.D{{Key: td.KeyField, Value: id}}
	stmt := fmt.Sprintf("%s.findOne(%v)", td.Name, filter)

	begin := time.Now()
	var doc bson.M
	err := m.collection(td).FindOne(ctx, filter, mongoOptions.FindOne().SetProjection(bson.D{{Key: "_id", Value: 0}})).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		m.tracer.trace(begin, stmt, 0, nil)
		return nil, nil
	}

	err = wrapMongoError(err)
	m.tracer.trace(begin, stmt, 1, err)
	if err != nil {
		return nil, err
	}

	return rowFromDocument(doc), nil
}

func (m *MongoStore) Find(ctx context.Context, td TableDef, q Query) ([]Row, error) {
	filter := createMongoFilter(q.Where)
	stmt := fmt.Sprintf("%s.find(%v)", td.Name, filter)

	opts := mongoOptions.Find().SetProjection(createMongoProjection(q))
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	begin := time.Now()
	cur, err := m.collection(td).Find(ctx, filter, opts)
	if err != nil {
		err = wrapMongoError(err)
		m.tracer.trace(begin, stmt, -1, err)
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		err = wrapMongoError(err)
		m.tracer.trace(begin, stmt, -1, err)
		return nil, err
	}

	m.tracer.trace(begin, stmt, int64(len(docs)), nil)
	return sliceMap(docs, rowFromDocument), nil
}

func (m *MongoStore) Insert(ctx context.Context, td TableDef, data Row) (int64, error) {
	id, err := m.nextID(ctx, td)
	if err != nil {
		return 0, err
	}

	doc := bson.D{{Key: td.KeyField, Value: id}}
	for _, col := range orderedColumns(td, data) {
		doc = append(doc, bson.E{Key: col, Value: data[col]})
	}

	stmt := fmt.Sprintf("%s.insertOne(%v)", td.Name, doc)

	begin := time.Now()
	_, err = m.collection(td).InsertOne(ctx, doc)
	err = wrapMongoError(err)
	m.tracer.trace(begin, stmt, 1, err)
	if err != nil {
		return 0, err
	}

	return id, nil
}

func (m *MongoStore) Update(ctx context.Context, td TableDef, id int64, data Row) (int64, error) {
	if len(data) == 0 {
		return 0, nil
	}

	filter := bson.D{{Key: td.KeyField, Value: id}}
	update := createMongoUpdate(td, data)
	stmt := fmt.Sprintf("%s.updateOne(%v, %v)", td.Name, filter, update)

	begin := time.Now()
	res, err := m.collection(td).UpdateOne(ctx, filter, update)
	if err != nil {
		err = wrapMongoError(err)
		m.tracer.trace(begin, stmt, -1, err)
		return 0, err
	}

	m.tracer.trace(begin, stmt, res.MatchedCount, nil)
	return res.MatchedCount, nil
}

func (m *MongoStore) Delete(ctx context.Context, td TableDef, id int64) (int64, error) {
	filter := bson.D{{Key: td.KeyField, Value: id}}
	stmt := fmt.Sprintf("%s.deleteOne(%v)", td.Name, filter)

	begin := time.Now()
	res, err := m.collection(td).DeleteOne(ctx, filter)
	if err != nil {
		err = wrapMongoError(err)
		m.tracer.trace(begin, stmt, -1, err)
		return 0, err
	}

	m.tracer.trace(begin, stmt, res.DeletedCount, nil)
	return res.DeletedCount, nil
}

// nextID increments the sequence kept for the table in the counters
// collection, creating it on first use.
func (m *MongoStore) nextID(ctx context.Context, td TableDef) (int64, error) {
	filter := bson.D{{Key: "_id", Value: collectionName(td)}}
	update := bson.D{{Key: "$inc", Value: bson.D{{Key: "seq", Value: int64(1)}}}}
	opts := mongoOptions.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(mongoOptions.After)

	var counter struct {
		Seq int64 `bson:"seq"`
	}

	begin := time.Now()
	err := m.db.Collection(m.counters).FindOneAndUpdate(ctx, filter, update, opts).Decode(&counter)
	err = wrapMongoError(err)
	m.tracer.trace(begin, fmt.Sprintf("%s.findOneAndUpdate(%v)", m.counters, filter), 1, err)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate key for %s: %w", td.Name, err)
	}

	return counter.Seq, nil
}

func createMongoFilter(conds []Cond) bson.D {
	var filter = bson.D{}
	for _, c := range conds {
		filter = append(filter, bson.E{Key: c.Column, Value: c.Value})
	}

	return filter
}

func createMongoProjection(q Query) bson.D {
	projection := bson.D{{Key: "_id", Value: 0}}
	if q.selectAll() {
		return projection
	}

	for _, col := range q.Columns {
		projection = append(projection, bson.E{Key: col, Value: 1})
	}

	return projection
}

func createMongoUpdate(td TableDef, data Row) bson.D {
	set := bson.D{}
	for _, col := range orderedColumns(td, data) {
		set = append(set, bson.E{Key: col, Value: data[col]})
	}

	return bson.D{{Key: "$set", Value: set}}
}

// rowFromDocument widens 32-bit numbers so rows read the same as rows from
// the SQL store.
func rowFromDocument(doc bson.M) Row {
	row := make(Row, len(doc))
	for k, v := range doc {
		switch val := v.(type) {
		case int32:
			row[k] = int64(val)
		case float32:
			row[k] = float64(val)
		default:
			row[k] = v
		}
	}

	return row
}

func wrapMongoError(err error) error {
	if err == nil {
		return nil
	}

	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %w", ErrKeyAlreadyExists, err)
	}

	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%w: %w", ErrKeyNotFound, err)
	}

	return err
}
