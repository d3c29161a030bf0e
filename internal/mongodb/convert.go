package mongodb

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Input errors surface to clients verbatim, so their casing matches the
// wire contract rather than Go convention.
var (
	// ErrMissingDocument signals an insert request carrying neither a
	// document nor a documents field.
	ErrMissingDocument = errors.New("Missing 'document' or 'documents' field")

	// ErrNoIndexSpecs signals a create_indexes request whose index list
	// contained no parseable specification.
	ErrNoIndexSpecs = errors.New("No valid index specifications")

	// ErrNoBulkOps signals a bulk_write request whose operations list
	// contained no recognized write model.
	ErrNoBulkOps = errors.New("No valid operations to execute")

	// ErrUpdateOrRemove signals a find_and_modify request that neither
	// updates nor removes.
	ErrUpdateOrRemove = errors.New("Must either update or remove")
)

// IsInputError reports whether err describes malformed request input rather
// than an execution failure. Handlers use it to choose a 400 over a 500.
func IsInputError(err error) bool {
	return errors.Is(err, ErrMissingDocument) ||
		errors.Is(err, ErrNoIndexSpecs) ||
		errors.Is(err, ErrNoBulkOps)
}

// Sanitize converts driver-native BSON values into plain JSON-encodable Go
// values. Object IDs and binary IDs become hex strings, timestamps become
// RFC 3339 strings, decimals become their string form, and ordered
// documents become plain maps. Nested documents and arrays are converted
// recursively.
func Sanitize(v interface{}) interface{} {
	switch val := v.(type) {
	case primitive.ObjectID:
		return val.Hex()
	case primitive.Binary:
		return hex.EncodeToString(val.Data)
	case primitive.DateTime:
		return val.Time().UTC().Format(time.RFC3339)
	case primitive.Decimal128:
		return val.String()
	case primitive.D:
		out := make(map[string]interface{}, len(val))
		for _, e := range val {
			out[e.Key] = Sanitize(e.Value)
		}
		return out
	case primitive.M:
		return Sanitize(map[string]interface{}(val))
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[k] = Sanitize(item)
		}
		return out
	case primitive.A:
		return Sanitize([]interface{}(val))
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = Sanitize(item)
		}
		return out
	default:
		return v
	}
}

// stringID renders an inserted or saved document ID the way the JSON API
// exposes it: object IDs and binary IDs as hex, everything else through its
// plain string form.
func stringID(v interface{}) string {
	switch id := v.(type) {
	case primitive.ObjectID:
		return id.Hex()
	case primitive.Binary:
		return hex.EncodeToString(id.Data)
	case string:
		return id
	default:
		return fmt.Sprintf("%v", Sanitize(v))
	}
}

// IndexKeys builds the key document for create_index and ensure_index
// requests. The pair-list form {"keys": [["field", 1], ...]} takes
// precedence; otherwise the legacy field/direction form applies with the
// defaults the single-index endpoint has always used.
func IndexKeys(payload map[string]interface{}) bson.D {
	if keys, ok := payload["keys"]; ok {
		if d := pairListKeys(keys); len(d) > 0 {
			return d
		}
	}
	field := stringField(payload, "field", "name")
	return bson.D{{Key: field, Value: indexDirection(payload["direction"])}}
}

// ParseIndexModels converts a create_indexes specification list into driver
// index models. Three request shapes are accepted: {"keys": [[f, d], ...]},
// a bare pair list (or single pair), and the legacy {"field": ...,
// "direction": ...} object. Unrecognized entries are skipped; an empty
// result is an input error.
func ParseIndexModels(specs []interface{}) ([]mongo.IndexModel, error) {
	var models []mongo.IndexModel
	for _, spec := range specs {
		switch s := spec.(type) {
		case map[string]interface{}:
			if keys, ok := s["keys"]; ok {
				if d := pairListKeys(keys); len(d) > 0 {
					models = append(models, mongo.IndexModel{Keys: d})
				}
				continue
			}
			if field, ok := s["field"].(string); ok {
				keys := bson.D{{Key: field, Value: indexDirection(s["direction"])}}
				models = append(models, mongo.IndexModel{Keys: keys})
			}
		case []interface{}:
			if d := pairListKeys(s); len(d) > 0 {
				models = append(models, mongo.IndexModel{Keys: d})
			}
		}
	}
	if len(models) == 0 {
		return nil, ErrNoIndexSpecs
	}
	return models, nil
}

// ParseWriteModels converts a bulk_write operations list into driver write
// models. Both the MongoDB bulk syntax ({"insertOne": ...}, {"updateOne":
// ...}) and the flat legacy {"type": "insert"} syntax are understood;
// entries matching neither are skipped. An empty result is an input error.
func ParseWriteModels(ops []interface{}) ([]mongo.WriteModel, error) {
	var models []mongo.WriteModel
	for _, raw := range ops {
		op, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		if model := writeModel(op); model != nil {
			models = append(models, model)
		}
	}
	if len(models) == 0 {
		return nil, ErrNoBulkOps
	}
	return models, nil
}

func writeModel(op map[string]interface{}) mongo.WriteModel {
	switch {
	case hasKey(op, "insertOne"):
		// The insertOne value is either {"document": ...} or the document
		// itself.
		doc := op["insertOne"]
		if spec, ok := doc.(map[string]interface{}); ok {
			if d, found := spec["document"]; found {
				doc = d
			}
		}
		return mongo.NewInsertOneModel().SetDocument(doc)
	case hasKey(op, "updateOne"):
		spec := docField(op, "updateOne")
		return mongo.NewUpdateOneModel().SetFilter(spec["filter"]).SetUpdate(spec["update"])
	case hasKey(op, "updateMany"):
		spec := docField(op, "updateMany")
		return mongo.NewUpdateManyModel().SetFilter(spec["filter"]).SetUpdate(spec["update"])
	case hasKey(op, "deleteOne"):
		spec := docField(op, "deleteOne")
		return mongo.NewDeleteOneModel().SetFilter(spec["filter"])
	case hasKey(op, "deleteMany"):
		spec := docField(op, "deleteMany")
		return mongo.NewDeleteManyModel().SetFilter(spec["filter"])
	case hasKey(op, "replaceOne"):
		spec := docField(op, "replaceOne")
		return mongo.NewReplaceOneModel().SetFilter(spec["filter"]).SetReplacement(spec["replacement"])
	}
	switch op["type"] {
	case "insert":
		return mongo.NewInsertOneModel().SetDocument(op["document"])
	case "update":
		return mongo.NewUpdateOneModel().SetFilter(op["filter"]).SetUpdate(op["update"])
	case "delete":
		return mongo.NewDeleteOneModel().SetFilter(op["filter"])
	case "replace":
		return mongo.NewReplaceOneModel().SetFilter(op["filter"]).SetReplacement(op["replacement"])
	}
	return nil
}

// pairListKeys parses the pair-list key form: either a list of
// [field, direction] pairs or a single such pair.
func pairListKeys(v interface{}) bson.D {
	list, ok := v.([]interface{})
	if !ok || len(list) == 0 {
		return nil
	}
	if _, single := list[0].(string); single {
		if e, ok := pairEntry(list); ok {
			return bson.D{e}
		}
		return nil
	}
	var keys bson.D
	for _, item := range list {
		pair, _ := item.([]interface{})
		if e, ok := pairEntry(pair); ok {
			keys = append(keys, e)
		}
	}
	return keys
}

func pairEntry(pair []interface{}) (bson.E, bool) {
	if len(pair) == 0 {
		return bson.E{}, false
	}
	name, ok := pair[0].(string)
	if !ok {
		return bson.E{}, false
	}
	dir := interface{}(int32(1))
	if len(pair) > 1 {
		dir = indexDirection(pair[1])
	}
	return bson.E{Key: name, Value: dir}, true
}

// indexDirection normalizes a JSON-decoded index direction. Numbers arrive
// as float64 and must become integers for the index specification; string
// forms such as "text" pass through.
func indexDirection(v interface{}) interface{} {
	switch d := v.(type) {
	case float64:
		return int32(d)
	case int:
		return int32(d)
	case int32:
		return d
	case int64:
		return int32(d)
	case string:
		return d
	default:
		return int32(1)
	}
}

// groupKeyDocument normalizes the legacy group key argument: a list of
// field names or a single name becomes a {field: 1} document, an explicit
// document passes through.
func groupKeyDocument(v interface{}) interface{} {
	switch key := v.(type) {
	case map[string]interface{}:
		return key
	case []interface{}:
		doc := bson.D{}
		for _, f := range key {
			if name, ok := f.(string); ok {
				doc = append(doc, bson.E{Key: name, Value: 1})
			}
		}
		return doc
	case string:
		return bson.D{{Key: key, Value: 1}}
	default:
		return bson.D{}
	}
}

// hasUpdateOperators reports whether a legacy update document uses operator
// form ({"$set": ...}) rather than full-document replacement.
func hasUpdateOperators(doc map[string]interface{}) bool {
	for k := range doc {
		if strings.HasPrefix(k, "$") {
			return true
		}
	}
	return false
}

// docField returns the named field as a document, or nil when it is absent
// or shaped differently.
func docField(payload map[string]interface{}, key string) map[string]interface{} {
	doc, _ := payload[key].(map[string]interface{})
	return doc
}

// orEmpty substitutes an empty document for nil so driver calls that
// require a filter always receive one.
func orEmpty(doc map[string]interface{}) map[string]interface{} {
	if doc == nil {
		return map[string]interface{}{}
	}
	return doc
}

func sliceField(payload map[string]interface{}, key string) []interface{} {
	list, _ := payload[key].([]interface{})
	return list
}

func stringField(payload map[string]interface{}, key, fallback string) string {
	if s, ok := payload[key].(string); ok {
		return s
	}
	return fallback
}

func boolField(payload map[string]interface{}, key string, fallback bool) bool {
	if b, ok := payload[key].(bool); ok {
		return b
	}
	return fallback
}

func intField(payload map[string]interface{}, key string, fallback int64) int64 {
	switch n := payload[key].(type) {
	case float64:
		return int64(n)
	case int:
		return int64(n)
	case int64:
		return n
	}
	return fallback
}

func hasKey(m map[string]interface{}, key string) bool {
	_, ok := m[key]
	return ok
}

// asInt64 coerces the numeric types a command reply may carry.
func asInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int32:
		return int64(n)
	case int64:
		return n
	case float64:
		return int64(n)
	case int:
		return int64(n)
	}
	return 0
}
