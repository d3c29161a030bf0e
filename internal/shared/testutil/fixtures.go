package testutil

import (
	"bytes"
	"encoding/json"
	"testing"
)

// SampleUserDocument returns a single user document for insert tests
func SampleUserDocument() map[string]interface{} {
	return map[string]interface{}{
		"name":   "Alice Johnson",
		"age":    28,
		"email":  "alice@example.com",
		"status": "active",
	}
}

// SampleUserDocuments returns a batch of user documents for bulk insert tests
func SampleUserDocuments() []interface{} {
	return []interface{}{
		map[string]interface{}{
			"name":   "Bob Smith",
			"age":    35,
			"email":  "bob@example.com",
			"status": "active",
		},
		map[string]interface{}{
			"name":   "Charlie Brown",
			"age":    42,
			"email":  "charlie@example.com",
			"status": "inactive",
		},
	}
}

// SampleAggregationPipeline returns a match/group pipeline for aggregation tests
func SampleAggregationPipeline() []interface{} {
	return []interface{}{
		map[string]interface{}{
			"$match": map[string]interface{}{"status": "active"},
		},
		map[string]interface{}{
			"$group": map[string]interface{}{
				"_id":     "$status",
				"count":   map[string]interface{}{"$sum": 1},
				"avg_age": map[string]interface{}{"$avg": "$age"},
			},
		},
	}
}

// SampleIndexSpecs returns index specifications for create_indexes tests
func SampleIndexSpecs() []interface{} {
	return []interface{}{
		map[string]interface{}{
			"keys":   []interface{}{[]interface{}{"email", 1}},
			"unique": true,
		},
		map[string]interface{}{
			"keys": []interface{}{
				[]interface{}{"status", 1},
				[]interface{}{"age", -1},
			},
		},
	}
}

// SampleBulkOperations returns mixed write operations for bulk_write tests
func SampleBulkOperations() []interface{} {
	return []interface{}{
		map[string]interface{}{
			"insertOne": map[string]interface{}{
				"document": map[string]interface{}{"name": "Bulk User 1", "age": 25},
			},
		},
		map[string]interface{}{
			"updateOne": map[string]interface{}{
				"filter": map[string]interface{}{"name": "Bulk User 1"},
				"update": map[string]interface{}{"$set": map[string]interface{}{"age": 26}},
			},
		},
		map[string]interface{}{
			"deleteOne": map[string]interface{}{
				"filter": map[string]interface{}{"name": "Bulk User 1"},
			},
		},
	}
}

// JSONBody marshals a payload into a reader for httptest requests
func JSONBody(t *testing.T, payload interface{}) *bytes.Reader {
	t.Helper()

	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal request body: %v", err)
	}
	return bytes.NewReader(data)
}
