package mongodb

import (
	"context"
	"fmt"
	"sort"
)

// supportedOperations enumerates every operation Invoke can dispatch,
// including the clear helper the runner uses to reset state between runs.
var supportedOperations = map[string]struct{}{
	"insert_one":               {},
	"insert_many":              {},
	"insert":                   {},
	"save":                     {},
	"find":                     {},
	"find_one":                 {},
	"find_one_and_delete":      {},
	"find_one_and_replace":     {},
	"find_one_and_update":      {},
	"find_and_modify":          {},
	"update_one":               {},
	"update_many":              {},
	"update":                   {},
	"replace_one":              {},
	"delete_one":               {},
	"delete_many":              {},
	"remove":                   {},
	"count":                    {},
	"count_documents":          {},
	"estimated_document_count": {},
	"aggregate":                {},
	"group":                    {},
	"map_reduce":               {},
	"inline_map_reduce":        {},
	"create_index":             {},
	"create_indexes":           {},
	"ensure_index":             {},
	"drop_index":               {},
	"drop_indexes":             {},
	"reindex":                  {},
	"distinct":                 {},
	"rename":                   {},
	"drop":                     {},
	"bulk_write":               {},
	"clear":                    {},
}

// IsSupported reports whether Invoke understands the named operation.
func IsSupported(name string) bool {
	_, ok := supportedOperations[name]
	return ok
}

// SupportedOperations returns the dispatchable operation names in sorted
// order.
func SupportedOperations() []string {
	names := make([]string, 0, len(supportedOperations))
	for name := range supportedOperations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke runs the named operation with a decoded JSON payload. Payload
// fields and defaults match the corresponding HTTP endpoint exactly, so the
// individual handlers and the sequential runner share one parsing path.
func (o *Operations) Invoke(ctx context.Context, name string, payload map[string]interface{}) (map[string]interface{}, error) {
	if payload == nil {
		payload = map[string]interface{}{}
	}
	switch name {
	case "insert_one":
		return o.InsertOne(ctx, docField(payload, "document"))
	case "insert_many":
		return o.InsertMany(ctx, sliceField(payload, "documents"))
	case "insert":
		return o.invokeInsert(ctx, payload)
	case "save":
		return o.Save(ctx, docField(payload, "document"))
	case "find":
		return o.Find(ctx, docField(payload, "filter"), docField(payload, "projection"), intField(payload, "limit", 10))
	case "find_one":
		return o.FindOne(ctx, docField(payload, "filter"), docField(payload, "projection"))
	case "find_one_and_delete":
		return o.FindOneAndDelete(ctx, docField(payload, "filter"))
	case "find_one_and_replace":
		return o.FindOneAndReplace(ctx, docField(payload, "filter"), docField(payload, "replacement"))
	case "find_one_and_update":
		return o.FindOneAndUpdate(ctx, docField(payload, "filter"), docField(payload, "update"))
	case "find_and_modify":
		return o.FindAndModify(ctx, docField(payload, "query"), docField(payload, "update"), boolField(payload, "remove", false))
	case "update_one":
		return o.UpdateOne(ctx, docField(payload, "filter"), docField(payload, "update"))
	case "update_many":
		return o.UpdateMany(ctx, docField(payload, "filter"), docField(payload, "update"))
	case "update":
		return o.Update(ctx, docField(payload, "spec"), docField(payload, "document"), boolField(payload, "multi", false))
	case "replace_one":
		return o.ReplaceOne(ctx, docField(payload, "filter"), docField(payload, "replacement"))
	case "delete_one":
		return o.DeleteOne(ctx, docField(payload, "filter"))
	case "delete_many":
		return o.DeleteMany(ctx, docField(payload, "filter"))
	case "remove":
		return o.Remove(ctx, docField(payload, "spec"), boolField(payload, "multi", false))
	case "count":
		return o.Count(ctx, docField(payload, "filter"))
	case "count_documents":
		return o.CountDocuments(ctx, docField(payload, "filter"))
	case "estimated_document_count":
		return o.EstimatedDocumentCount(ctx)
	case "aggregate":
		return o.Aggregate(ctx, sliceField(payload, "pipeline"))
	case "group":
		return o.Group(ctx, payload["key"], docField(payload, "condition"), docField(payload, "initial"), stringField(payload, "reduce", ""))
	case "map_reduce":
		return o.MapReduce(ctx, stringField(payload, "map", ""), stringField(payload, "reduce", ""), stringField(payload, "out", "mr_results"))
	case "inline_map_reduce":
		return o.InlineMapReduce(ctx, stringField(payload, "map", ""), stringField(payload, "reduce", ""))
	case "create_index":
		return o.CreateIndex(ctx, IndexKeys(payload), boolField(payload, "unique", false))
	case "create_indexes":
		models, err := ParseIndexModels(sliceField(payload, "indexes"))
		if err != nil {
			return nil, err
		}
		return o.CreateIndexes(ctx, models)
	case "ensure_index":
		return o.EnsureIndex(ctx, IndexKeys(payload))
	case "drop_index":
		return o.DropIndex(ctx, stringField(payload, "index_name", ""))
	case "drop_indexes":
		return o.DropIndexes(ctx)
	case "reindex":
		return o.Reindex(ctx)
	case "distinct":
		return o.Distinct(ctx, distinctKey(payload), docField(payload, "filter"))
	case "rename":
		_, result, err := o.Rename(ctx, stringField(payload, "new_name", ""))
		return result, err
	case "drop":
		_, result, err := o.Drop(ctx)
		return result, err
	case "bulk_write":
		models, err := ParseWriteModels(sliceField(payload, "operations"))
		if err != nil {
			return nil, err
		}
		return o.BulkWrite(ctx, models)
	case "clear":
		return o.Clear(ctx)
	}
	return nil, fmt.Errorf("unsupported operation %q", name)
}

// invokeInsert applies the legacy insert endpoint's field precedence: a
// non-empty documents list wins, then a non-empty document, then an input
// error.
func (o *Operations) invokeInsert(ctx context.Context, payload map[string]interface{}) (map[string]interface{}, error) {
	if docs := sliceField(payload, "documents"); len(docs) > 0 {
		return o.Insert(ctx, docs)
	}
	if doc := docField(payload, "document"); len(doc) > 0 {
		return o.Insert(ctx, doc)
	}
	return nil, ErrMissingDocument
}

// distinctKey resolves the distinct key, honoring the field alias the
// runner's payload uses alongside the endpoint's key field.
func distinctKey(payload map[string]interface{}) string {
	if key, ok := payload["key"].(string); ok {
		return key
	}
	return stringField(payload, "field", "name")
}
