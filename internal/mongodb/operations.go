package mongodb

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"mongosuite/internal/config"
	"mongosuite/internal/infrastructure"
)

// Operations executes collection operations against whatever collection the
// current handle points at. All methods are safe for concurrent use: reads
// take a shared lock on the handle while rename and drop swap it under an
// exclusive one.
type Operations struct {
	client *Client
	logger *slog.Logger

	mu     sync.RWMutex
	handle Handle
	base   Handle
}

// NewOperations wires the operation set to the configured base collection.
func NewOperations(client *Client, cfg config.MongoConfig, logger *slog.Logger) *Operations {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	base := NewHandle(cfg.Database, cfg.Collection)
	return &Operations{
		client: client,
		logger: logger.With(slog.String("component", "mongodb.operations")),
		handle: base,
		base:   base,
	}
}

// Handle returns the collection currently targeted by operations.
func (o *Operations) Handle() Handle {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.handle
}

func (o *Operations) collection() *mongo.Collection {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.client.Database(o.handle.database).Collection(o.handle.name)
}

func (o *Operations) startSpan(ctx context.Context, op string) (context.Context, trace.Span) {
	return tracer().Start(ctx, "collection."+op)
}

// spanErr marks the span failed and passes the error through unchanged.
func spanErr(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// InsertOne inserts a single document.
func (o *Operations) InsertOne(ctx context.Context, document map[string]interface{}) (map[string]interface{}, error) {
	ctx, span := o.startSpan(ctx, "insert_one")
	defer span.End()

	res, err := o.collection().InsertOne(ctx, orEmpty(document))
	if err != nil {
		return nil, spanErr(span, err)
	}
	// Writes use the default write concern, which is acknowledged.
	return map[string]interface{}{
		"operation":    "insert_one",
		"inserted_id":  stringID(res.InsertedID),
		"acknowledged": true,
	}, nil
}

// InsertMany inserts a batch of documents.
func (o *Operations) InsertMany(ctx context.Context, documents []interface{}) (map[string]interface{}, error) {
	ctx, span := o.startSpan(ctx, "insert_many")
	defer span.End()

	res, err := o.collection().InsertMany(ctx, documents)
	if err != nil {
		return nil, spanErr(span, err)
	}
	ids := make([]string, 0, len(res.InsertedIDs))
	for _, id := range res.InsertedIDs {
		ids = append(ids, stringID(id))
	}
	return map[string]interface{}{
		"operation":      "insert_many",
		"inserted_ids":   ids,
		"inserted_count": len(ids),
		"acknowledged":   true,
	}, nil
}

// Insert emulates the removed legacy insert, accepting either a single
// document or a list of documents.
func (o *Operations) Insert(ctx context.Context, docOrDocs interface{}) (map[string]interface{}, error) {
	ctx, span := o.startSpan(ctx, "insert")
	defer span.End()

	if docs, ok := docOrDocs.([]interface{}); ok {
		res, err := o.collection().InsertMany(ctx, docs)
		if err != nil {
			return nil, spanErr(span, err)
		}
		ids := make([]string, 0, len(res.InsertedIDs))
		for _, id := range res.InsertedIDs {
			ids = append(ids, stringID(id))
		}
		return map[string]interface{}{
			"operation":    "insert",
			"inserted_ids": ids,
			"count":        len(ids),
		}, nil
	}

	res, err := o.collection().InsertOne(ctx, docOrDocs)
	if err != nil {
		return nil, spanErr(span, err)
	}
	return map[string]interface{}{
		"operation":   "insert",
		"inserted_id": stringID(res.InsertedID),
	}, nil
}

// Save emulates the removed legacy save: a document carrying an _id is
// upserted in place, anything else is inserted fresh.
func (o *Operations) Save(ctx context.Context, document map[string]interface{}) (map[string]interface{}, error) {
	ctx, span := o.startSpan(ctx, "save")
	defer span.End()

	doc := orEmpty(document)
	if id, ok := doc["_id"]; ok {
		opts := options.Replace().SetUpsert(true)
		if _, err := o.collection().ReplaceOne(ctx, bson.M{"_id": id}, doc, opts); err != nil {
			return nil, spanErr(span, err)
		}
		return map[string]interface{}{"operation": "save", "saved_id": stringID(id)}, nil
	}

	res, err := o.collection().InsertOne(ctx, doc)
	if err != nil {
		return nil, spanErr(span, err)
	}
	return map[string]interface{}{"operation": "save", "saved_id": stringID(res.InsertedID)}, nil
}

// Find returns the documents matching a filter. A zero limit means no
// limit.
func (o *Operations) Find(ctx context.Context, filter, projection map[string]interface{}, limit int64) (map[string]interface{}, error) {
	ctx, span := o.startSpan(ctx, "find")
	defer span.End()

	opts := options.Find().SetLimit(limit)
	if projection != nil {
		opts.SetProjection(projection)
	}
	cur, err := o.collection().Find(ctx, orEmpty(filter), opts)
	if err != nil {
		return nil, spanErr(span, err)
	}
	docs, err := drainCursor(ctx, cur)
	if err != nil {
		return nil, spanErr(span, err)
	}
	return map[string]interface{}{
		"operation": "find",
		"count":     len(docs),
		"documents": docs,
	}, nil
}

// FindOne returns the first document matching a filter, or a null document
// when nothing matches.
func (o *Operations) FindOne(ctx context.Context, filter, projection map[string]interface{}) (map[string]interface{}, error) {
	ctx, span := o.startSpan(ctx, "find_one")
	defer span.End()

	opts := options.FindOne()
	if projection != nil {
		opts.SetProjection(projection)
	}
	doc, err := decodeSingle(o.collection().FindOne(ctx, orEmpty(filter), opts))
	if err != nil {
		return nil, spanErr(span, err)
	}
	return map[string]interface{}{"operation": "find_one", "document": doc}, nil
}

// FindOneAndDelete deletes the first matching document and returns it.
func (o *Operations) FindOneAndDelete(ctx context.Context, filter map[string]interface{}) (map[string]interface{}, error) {
	ctx, span := o.startSpan(ctx, "find_one_and_delete")
	defer span.End()

	doc, err := decodeSingle(o.collection().FindOneAndDelete(ctx, orEmpty(filter)))
	if err != nil {
		return nil, spanErr(span, err)
	}
	return map[string]interface{}{"operation": "find_one_and_delete", "deleted_document": doc}, nil
}

// FindOneAndReplace replaces the first matching document and returns the
// document as it was before the replacement.
func (o *Operations) FindOneAndReplace(ctx context.Context, filter, replacement map[string]interface{}) (map[string]interface{}, error) {
	ctx, span := o.startSpan(ctx, "find_one_and_replace")
	defer span.End()

	doc, err := decodeSingle(o.collection().FindOneAndReplace(ctx, orEmpty(filter), orEmpty(replacement)))
	if err != nil {
		return nil, spanErr(span, err)
	}
	return map[string]interface{}{"operation": "find_one_and_replace", "old_document": doc}, nil
}

// FindOneAndUpdate updates the first matching document and returns the
// document as it was before the update.
func (o *Operations) FindOneAndUpdate(ctx context.Context, filter, update map[string]interface{}) (map[string]interface{}, error) {
	ctx, span := o.startSpan(ctx, "find_one_and_update")
	defer span.End()

	doc, err := decodeSingle(o.collection().FindOneAndUpdate(ctx, orEmpty(filter), orEmpty(update)))
	if err != nil {
		return nil, spanErr(span, err)
	}
	return map[string]interface{}{"operation": "find_one_and_update", "old_document": doc}, nil
}

// FindAndModify emulates the removed legacy find_and_modify, routing to a
// find-and-delete when remove is set and a find-and-update otherwise.
func (o *Operations) FindAndModify(ctx context.Context, query, update map[string]interface{}, remove bool) (map[string]interface{}, error) {
	ctx, span := o.startSpan(ctx, "find_and_modify")
	defer span.End()

	var (
		doc interface{}
		err error
	)
	switch {
	case remove:
		doc, err = decodeSingle(o.collection().FindOneAndDelete(ctx, orEmpty(query)))
	case update != nil:
		doc, err = decodeSingle(o.collection().FindOneAndUpdate(ctx, orEmpty(query), update))
	default:
		return nil, spanErr(span, ErrUpdateOrRemove)
	}
	if err != nil {
		return nil, spanErr(span, err)
	}
	return map[string]interface{}{"operation": "find_and_modify", "document": doc}, nil
}

// UpdateOne applies an update to the first matching document.
func (o *Operations) UpdateOne(ctx context.Context, filter, update map[string]interface{}) (map[string]interface{}, error) {
	ctx, span := o.startSpan(ctx, "update_one")
	defer span.End()

	res, err := o.collection().UpdateOne(ctx, orEmpty(filter), update)
	if err != nil {
		return nil, spanErr(span, err)
	}
	return map[string]interface{}{
		"operation":      "update_one",
		"matched_count":  res.MatchedCount,
		"modified_count": res.ModifiedCount,
		"acknowledged":   true,
	}, nil
}

// UpdateMany applies an update to every matching document.
func (o *Operations) UpdateMany(ctx context.Context, filter, update map[string]interface{}) (map[string]interface{}, error) {
	ctx, span := o.startSpan(ctx, "update_many")
	defer span.End()

	res, err := o.collection().UpdateMany(ctx, orEmpty(filter), update)
	if err != nil {
		return nil, spanErr(span, err)
	}
	return map[string]interface{}{
		"operation":      "update_many",
		"matched_count":  res.MatchedCount,
		"modified_count": res.ModifiedCount,
		"acknowledged":   true,
	}, nil
}

// Update emulates the removed legacy update. Operator documents map to a
// single or multi update depending on multi; plain documents replace the
// first match, which is the only replacement form the legacy call allowed.
func (o *Operations) Update(ctx context.Context, spec, document map[string]interface{}, multi bool) (map[string]interface{}, error) {
	ctx, span := o.startSpan(ctx, "update")
	defer span.End()

	var (
		res *mongo.UpdateResult
		err error
	)
	switch {
	case hasUpdateOperators(document):
		if multi {
			res, err = o.collection().UpdateMany(ctx, orEmpty(spec), document)
		} else {
			res, err = o.collection().UpdateOne(ctx, orEmpty(spec), document)
		}
	case multi:
		err = errors.New("multi update only works with $ operators")
	default:
		res, err = o.collection().ReplaceOne(ctx, orEmpty(spec), orEmpty(document))
	}
	if err != nil {
		return nil, spanErr(span, err)
	}
	return map[string]interface{}{
		"operation": "update",
		"result": map[string]interface{}{
			"n":               res.MatchedCount,
			"nModified":       res.ModifiedCount,
			"updatedExisting": res.MatchedCount > 0,
			"ok":              1,
		},
	}, nil
}

// ReplaceOne replaces the first matching document.
func (o *Operations) ReplaceOne(ctx context.Context, filter, replacement map[string]interface{}) (map[string]interface{}, error) {
	ctx, span := o.startSpan(ctx, "replace_one")
	defer span.End()

	res, err := o.collection().ReplaceOne(ctx, orEmpty(filter), orEmpty(replacement))
	if err != nil {
		return nil, spanErr(span, err)
	}
	return map[string]interface{}{
		"operation":      "replace_one",
		"matched_count":  res.MatchedCount,
		"modified_count": res.ModifiedCount,
		"acknowledged":   true,
	}, nil
}

// DeleteOne deletes the first matching document.
func (o *Operations) DeleteOne(ctx context.Context, filter map[string]interface{}) (map[string]interface{}, error) {
	ctx, span := o.startSpan(ctx, "delete_one")
	defer span.End()

	res, err := o.collection().DeleteOne(ctx, orEmpty(filter))
	if err != nil {
		return nil, spanErr(span, err)
	}
	return map[string]interface{}{
		"operation":     "delete_one",
		"deleted_count": res.DeletedCount,
		"acknowledged":  true,
	}, nil
}

// DeleteMany deletes every matching document.
func (o *Operations) DeleteMany(ctx context.Context, filter map[string]interface{}) (map[string]interface{}, error) {
	ctx, span := o.startSpan(ctx, "delete_many")
	defer span.End()

	res, err := o.collection().DeleteMany(ctx, orEmpty(filter))
	if err != nil {
		return nil, spanErr(span, err)
	}
	return map[string]interface{}{
		"operation":     "delete_many",
		"deleted_count": res.DeletedCount,
		"acknowledged":  true,
	}, nil
}

// Remove emulates the removed legacy remove, deleting one or all matches
// depending on multi.
func (o *Operations) Remove(ctx context.Context, spec map[string]interface{}, multi bool) (map[string]interface{}, error) {
	ctx, span := o.startSpan(ctx, "remove")
	defer span.End()

	var (
		res *mongo.DeleteResult
		err error
	)
	if multi {
		res, err = o.collection().DeleteMany(ctx, orEmpty(spec))
	} else {
		res, err = o.collection().DeleteOne(ctx, orEmpty(spec))
	}
	if err != nil {
		return nil, spanErr(span, err)
	}
	return map[string]interface{}{
		"operation": "remove",
		"result":    map[string]interface{}{"n": res.DeletedCount, "ok": 1},
	}, nil
}

// Count emulates the removed legacy count with a count_documents call.
func (o *Operations) Count(ctx context.Context, filter map[string]interface{}) (map[string]interface{}, error) {
	ctx, span := o.startSpan(ctx, "count")
	defer span.End()

	n, err := o.collection().CountDocuments(ctx, orEmpty(filter))
	if err != nil {
		return nil, spanErr(span, err)
	}
	return map[string]interface{}{"operation": "count", "count": n}, nil
}

// CountDocuments counts the documents matching a filter.
func (o *Operations) CountDocuments(ctx context.Context, filter map[string]interface{}) (map[string]interface{}, error) {
	ctx, span := o.startSpan(ctx, "count_documents")
	defer span.End()

	n, err := o.collection().CountDocuments(ctx, orEmpty(filter))
	if err != nil {
		return nil, spanErr(span, err)
	}
	return map[string]interface{}{"operation": "count_documents", "count": n}, nil
}

// EstimatedDocumentCount estimates the collection size from metadata.
func (o *Operations) EstimatedDocumentCount(ctx context.Context) (map[string]interface{}, error) {
	ctx, span := o.startSpan(ctx, "estimated_document_count")
	defer span.End()

	n, err := o.collection().EstimatedDocumentCount(ctx)
	if err != nil {
		return nil, spanErr(span, err)
	}
	return map[string]interface{}{"operation": "estimated_document_count", "count": n}, nil
}

// Aggregate runs an aggregation pipeline and returns all result documents.
func (o *Operations) Aggregate(ctx context.Context, pipeline []interface{}) (map[string]interface{}, error) {
	ctx, span := o.startSpan(ctx, "aggregate")
	defer span.End()

	if pipeline == nil {
		pipeline = []interface{}{}
	}
	cur, err := o.collection().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, spanErr(span, err)
	}
	results, err := drainCursor(ctx, cur)
	if err != nil {
		return nil, spanErr(span, err)
	}
	return map[string]interface{}{
		"operation": "aggregate",
		"count":     len(results),
		"results":   results,
	}, nil
}

// Group emulates the removed legacy group by issuing the raw group command.
// Servers newer than 4.0 reject the command, which surfaces as an ordinary
// operation failure.
func (o *Operations) Group(ctx context.Context, key interface{}, condition, initial map[string]interface{}, reduce string) (map[string]interface{}, error) {
	ctx, span := o.startSpan(ctx, "group")
	defer span.End()

	h := o.Handle()
	cmd := bson.D{{Key: "group", Value: bson.D{
		{Key: "ns", Value: h.Name()},
		{Key: "key", Value: groupKeyDocument(key)},
		{Key: "cond", Value: orEmpty(condition)},
		{Key: "initial", Value: orEmpty(initial)},
		{Key: "$reduce", Value: primitive.JavaScript(reduce)},
	}}}
	var reply bson.M
	if err := o.client.Database(h.Database()).RunCommand(ctx, cmd).Decode(&reply); err != nil {
		return nil, spanErr(span, err)
	}
	return map[string]interface{}{"operation": "group", "results": Sanitize(reply["retval"])}, nil
}

// MapReduce issues the mapReduce command with a named output collection and
// reports the output collection's namespace.
func (o *Operations) MapReduce(ctx context.Context, mapFn, reduceFn, out string) (map[string]interface{}, error) {
	ctx, span := o.startSpan(ctx, "map_reduce")
	defer span.End()

	h := o.Handle()
	cmd := bson.D{
		{Key: "mapReduce", Value: h.Name()},
		{Key: "map", Value: primitive.JavaScript(mapFn)},
		{Key: "reduce", Value: primitive.JavaScript(reduceFn)},
		{Key: "out", Value: out},
	}
	if err := o.client.Database(h.Database()).RunCommand(ctx, cmd).Err(); err != nil {
		return nil, spanErr(span, err)
	}
	return map[string]interface{}{
		"operation":  "map_reduce",
		"collection": h.Database() + "." + out,
	}, nil
}

// InlineMapReduce issues the mapReduce command with inline output and
// returns the reduced documents directly.
func (o *Operations) InlineMapReduce(ctx context.Context, mapFn, reduceFn string) (map[string]interface{}, error) {
	ctx, span := o.startSpan(ctx, "inline_map_reduce")
	defer span.End()

	h := o.Handle()
	cmd := bson.D{
		{Key: "mapReduce", Value: h.Name()},
		{Key: "map", Value: primitive.JavaScript(mapFn)},
		{Key: "reduce", Value: primitive.JavaScript(reduceFn)},
		{Key: "out", Value: bson.D{{Key: "inline", Value: 1}}},
	}
	var reply bson.M
	if err := o.client.Database(h.Database()).RunCommand(ctx, cmd).Decode(&reply); err != nil {
		return nil, spanErr(span, err)
	}
	results, _ := Sanitize(reply["results"]).([]interface{})
	if results == nil {
		results = []interface{}{}
	}
	return map[string]interface{}{"operation": "inline_map_reduce", "results": results}, nil
}

// CreateIndex creates a single index and reports its generated name.
func (o *Operations) CreateIndex(ctx context.Context, keys bson.D, unique bool) (map[string]interface{}, error) {
	ctx, span := o.startSpan(ctx, "create_index")
	defer span.End()

	model := mongo.IndexModel{Keys: keys}
	if unique {
		model.Options = options.Index().SetUnique(true)
	}
	name, err := o.collection().Indexes().CreateOne(ctx, model)
	if err != nil {
		return nil, spanErr(span, err)
	}
	return map[string]interface{}{"operation": "create_index", "index_name": name}, nil
}

// CreateIndexes creates several indexes in one call.
func (o *Operations) CreateIndexes(ctx context.Context, models []mongo.IndexModel) (map[string]interface{}, error) {
	ctx, span := o.startSpan(ctx, "create_indexes")
	defer span.End()

	names, err := o.collection().Indexes().CreateMany(ctx, models)
	if err != nil {
		return nil, spanErr(span, err)
	}
	return map[string]interface{}{"operation": "create_indexes", "index_names": names}, nil
}

// EnsureIndex emulates the removed legacy ensure_index; on modern servers
// it is simply an index creation.
func (o *Operations) EnsureIndex(ctx context.Context, keys bson.D) (map[string]interface{}, error) {
	ctx, span := o.startSpan(ctx, "ensure_index")
	defer span.End()

	name, err := o.collection().Indexes().CreateOne(ctx, mongo.IndexModel{Keys: keys})
	if err != nil {
		return nil, spanErr(span, err)
	}
	return map[string]interface{}{"operation": "ensure_index", "index_name": name}, nil
}

// DropIndex drops the named index.
func (o *Operations) DropIndex(ctx context.Context, name string) (map[string]interface{}, error) {
	ctx, span := o.startSpan(ctx, "drop_index")
	defer span.End()

	if _, err := o.collection().Indexes().DropOne(ctx, name); err != nil {
		return nil, spanErr(span, err)
	}
	return map[string]interface{}{"operation": "drop_index", "dropped": name}, nil
}

// DropIndexes drops every index except the mandatory _id index.
func (o *Operations) DropIndexes(ctx context.Context) (map[string]interface{}, error) {
	ctx, span := o.startSpan(ctx, "drop_indexes")
	defer span.End()

	if _, err := o.collection().Indexes().DropAll(ctx); err != nil {
		return nil, spanErr(span, err)
	}
	return map[string]interface{}{"operation": "drop_indexes", "status": "all indexes dropped"}, nil
}

// Reindex issues the raw reIndex command. Standalone servers accept it;
// replica sets on recent versions do not, which surfaces as an ordinary
// operation failure.
func (o *Operations) Reindex(ctx context.Context) (map[string]interface{}, error) {
	ctx, span := o.startSpan(ctx, "reindex")
	defer span.End()

	h := o.Handle()
	var reply bson.M
	if err := o.client.Database(h.Database()).RunCommand(ctx, bson.D{{Key: "reIndex", Value: h.Name()}}).Decode(&reply); err != nil {
		return nil, spanErr(span, err)
	}
	return map[string]interface{}{"operation": "reindex", "result": Sanitize(reply)}, nil
}

// Distinct returns the distinct values of a key across matching documents.
func (o *Operations) Distinct(ctx context.Context, key string, filter map[string]interface{}) (map[string]interface{}, error) {
	ctx, span := o.startSpan(ctx, "distinct")
	defer span.End()

	values, err := o.collection().Distinct(ctx, key, orEmpty(filter))
	if err != nil {
		return nil, spanErr(span, err)
	}
	sanitized := make([]interface{}, 0, len(values))
	for _, v := range values {
		sanitized = append(sanitized, Sanitize(v))
	}
	return map[string]interface{}{
		"operation": "distinct",
		"key":       key,
		"values":    sanitized,
		"count":     len(sanitized),
	}, nil
}

// Rename renames the target collection and returns the handle now pointing
// at the new name. On failure the current handle is returned unchanged.
func (o *Operations) Rename(ctx context.Context, newName string) (Handle, map[string]interface{}, error) {
	ctx, span := o.startSpan(ctx, "rename")
	defer span.End()

	o.mu.Lock()
	defer o.mu.Unlock()

	if newName == "" {
		return o.handle, nil, spanErr(span, errors.New("new collection name is required"))
	}

	from := o.handle.FullName()
	to := o.handle.WithName(newName)
	cmd := bson.D{
		{Key: "renameCollection", Value: from},
		{Key: "to", Value: to.FullName()},
	}
	// renameCollection is an admin command, not a collection command.
	if err := o.client.Database("admin").RunCommand(ctx, cmd).Err(); err != nil {
		return o.handle, nil, spanErr(span, err)
	}
	o.handle = to
	o.logger.InfoContext(ctx, "Collection renamed",
		slog.String("from", from),
		slog.String("to", to.FullName()))

	return to, map[string]interface{}{"operation": "rename", "new_name": newName}, nil
}

// Drop drops the target collection and resets the handle to the configured
// base collection, returning the fresh handle. On failure the current
// handle is returned unchanged.
func (o *Operations) Drop(ctx context.Context) (Handle, map[string]interface{}, error) {
	ctx, span := o.startSpan(ctx, "drop")
	defer span.End()

	o.mu.Lock()
	defer o.mu.Unlock()

	coll := o.client.Database(o.handle.database).Collection(o.handle.name)
	if err := coll.Drop(ctx); err != nil {
		return o.handle, nil, spanErr(span, err)
	}
	dropped := o.handle.FullName()
	o.handle = o.base
	o.logger.InfoContext(ctx, "Collection dropped",
		slog.String("collection", dropped),
		slog.String("reset_to", o.base.FullName()))

	return o.base, map[string]interface{}{"operation": "drop", "status": "collection dropped"}, nil
}

// BulkWrite executes a batch of write models in one round trip.
func (o *Operations) BulkWrite(ctx context.Context, models []mongo.WriteModel) (map[string]interface{}, error) {
	ctx, span := o.startSpan(ctx, "bulk_write")
	defer span.End()

	res, err := o.collection().BulkWrite(ctx, models)
	if err != nil {
		return nil, spanErr(span, err)
	}
	return map[string]interface{}{
		"operation":      "bulk_write",
		"inserted_count": res.InsertedCount,
		"matched_count":  res.MatchedCount,
		"modified_count": res.ModifiedCount,
		"deleted_count":  res.DeletedCount,
		"upserted_count": res.UpsertedCount,
		"acknowledged":   true,
	}, nil
}

// Clear removes every document so a run starts from a known-empty
// collection.
func (o *Operations) Clear(ctx context.Context) (map[string]interface{}, error) {
	ctx, span := o.startSpan(ctx, "clear")
	defer span.End()

	res, err := o.collection().DeleteMany(ctx, bson.M{})
	if err != nil {
		return nil, spanErr(span, err)
	}
	return map[string]interface{}{"operation": "clear_collection", "deleted_count": res.DeletedCount}, nil
}

// Stats reports basic collection statistics from collStats.
func (o *Operations) Stats(ctx context.Context) (map[string]interface{}, error) {
	ctx, span := o.startSpan(ctx, "stats")
	defer span.End()

	h := o.Handle()
	var reply bson.M
	if err := o.client.Database(h.Database()).RunCommand(ctx, bson.D{{Key: "collStats", Value: h.Name()}}).Decode(&reply); err != nil {
		return nil, spanErr(span, err)
	}
	return map[string]interface{}{
		"collection": h.Name(),
		"count":      asInt64(reply["count"]),
		"size":       asInt64(reply["size"]),
		"indexes":    asInt64(reply["nindexes"]),
	}, nil
}

// drainCursor reads a cursor to exhaustion, sanitizing each document for
// JSON encoding. The result is never nil so empty sets encode as [].
func drainCursor(ctx context.Context, cur *mongo.Cursor) ([]interface{}, error) {
	var raw []bson.M
	if err := cur.All(ctx, &raw); err != nil {
		return nil, err
	}
	docs := make([]interface{}, 0, len(raw))
	for _, doc := range raw {
		docs = append(docs, Sanitize(doc))
	}
	return docs, nil
}

// decodeSingle unwraps a single-document result, mapping the no-document
// case to a null document rather than an error.
func decodeSingle(res *mongo.SingleResult) (interface{}, error) {
	var doc bson.M
	if err := res.Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return Sanitize(doc), nil
}
