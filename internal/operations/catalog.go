package operations

import "fmt"

// Operation groups, matching the grouping the HTTP surface advertises.
const (
	GroupInsert      = "insert"
	GroupFind        = "find"
	GroupUpdate      = "update"
	GroupDelete      = "delete"
	GroupCount       = "count"
	GroupAggregation = "aggregation"
	GroupIndex       = "index"
	GroupCollection  = "collection"
	GroupBulk        = "bulk"
)

// Descriptor names one catalog operation and carries the payload it runs
// with. Payloads use the same field names the HTTP endpoints accept, so the
// executor and the endpoints share a single parsing path.
type Descriptor struct {
	Name    string
	Group   string
	Payload map[string]interface{}
}

// Catalog is an ordered run plan. The order is part of the contract: the
// executor never reorders or parallelizes entries.
type Catalog []Descriptor

// Names returns the operation names in catalog order.
func (c Catalog) Names() []string {
	names := make([]string, len(c))
	for i, d := range c {
		names[i] = d.Name
	}
	return names
}

var documentGroups = map[string]bool{
	GroupInsert:      true,
	GroupFind:        true,
	GroupUpdate:      true,
	GroupDelete:      true,
	GroupCount:       true,
	GroupAggregation: true,
}

var (
	indexCreations = map[string]bool{"create_index": true, "create_indexes": true, "ensure_index": true}
	indexRemovals  = map[string]bool{"drop_index": true, "drop_indexes": true}
)

// Validate checks the ordering rules that make a catalog safe to run
// sequentially against a single collection: names are unique, document
// operations run before anything structural, indexes are created before they
// are removed, every index operation precedes rename, and drop (when
// present) is the final entry.
func (c Catalog) Validate() error {
	seen := make(map[string]int, len(c))
	firstStructural := -1
	lastDocument := -1
	lastIndexCreate := -1
	firstIndexDrop := -1
	lastIndexOp := -1
	renameAt := -1
	dropAt := -1

	for i, d := range c {
		if d.Name == "" {
			return fmt.Errorf("catalog entry %d has no name", i)
		}
		if prev, dup := seen[d.Name]; dup {
			return fmt.Errorf("duplicate operation %q at positions %d and %d", d.Name, prev+1, i+1)
		}
		seen[d.Name] = i

		if d.Group == GroupIndex || d.Name == "rename" || d.Name == "drop" {
			if firstStructural == -1 {
				firstStructural = i
			}
		}
		if documentGroups[d.Group] {
			lastDocument = i
		}
		if indexCreations[d.Name] {
			lastIndexCreate = i
		}
		if indexRemovals[d.Name] && firstIndexDrop == -1 {
			firstIndexDrop = i
		}
		if d.Group == GroupIndex {
			lastIndexOp = i
		}
		switch d.Name {
		case "rename":
			renameAt = i
		case "drop":
			dropAt = i
		}
	}

	if firstStructural != -1 && lastDocument > firstStructural {
		return fmt.Errorf("document operation %q scheduled after structural operation %q",
			c[lastDocument].Name, c[firstStructural].Name)
	}
	if firstIndexDrop != -1 && lastIndexCreate > firstIndexDrop {
		return fmt.Errorf("index creation %q scheduled after index removal %q",
			c[lastIndexCreate].Name, c[firstIndexDrop].Name)
	}
	if renameAt != -1 && lastIndexOp > renameAt {
		return fmt.Errorf("index operation %q scheduled after rename", c[lastIndexOp].Name)
	}
	if dropAt != -1 && dropAt != len(c)-1 {
		return fmt.Errorf("drop must be the final operation, found at position %d of %d", dropAt+1, len(c))
	}
	return nil
}

// Payload literal shorthand.
type (
	doc  = map[string]interface{}
	list = []interface{}
)

// DefaultCatalog returns the fixed plan the harness ships: every exposed
// collection operation exactly once, document operations first, index
// creation ahead of index removal, rename ahead of the terminal drop. group
// is absent because modern servers removed the command outright; the other
// legacy operations stay and simply report whatever the server makes of
// them.
func DefaultCatalog() Catalog {
	return Catalog{
		{Name: "insert_one", Group: GroupInsert, Payload: doc{
			"document": doc{
				"name": "Alice Johnson", "age": 30, "email": "alice@example.com", "status": "active",
				"department": "Engineering", "salary": 85000, "tags": list{"python", "mongodb"},
			},
		}},
		{Name: "insert_many", Group: GroupInsert, Payload: doc{
			"documents": list{
				doc{"name": "Bob Smith", "age": 25, "email": "bob@example.com", "status": "active", "department": "Marketing", "salary": 65000},
				doc{"name": "Charlie Brown", "age": 35, "email": "charlie@example.com", "status": "inactive", "department": "Engineering", "salary": 95000},
				doc{"name": "Diana Ross", "age": 28, "email": "diana@example.com", "status": "active", "department": "Sales", "salary": 72000},
				doc{"name": "Edward Chen", "age": 42, "email": "edward@example.com", "status": "active", "department": "Engineering", "salary": 120000},
				doc{"name": "Fiona Garcia", "age": 31, "email": "fiona@example.com", "status": "active", "department": "HR", "salary": 68000},
			},
		}},
		{Name: "insert", Group: GroupInsert, Payload: doc{
			"document": doc{"name": "George Wilson", "age": 45, "department": "Finance", "salary": 110000},
		}},
		{Name: "save", Group: GroupInsert, Payload: doc{
			"document": doc{"name": "Hannah Lee", "age": 33, "department": "Engineering", "salary": 92000},
		}},
		{Name: "find", Group: GroupFind, Payload: doc{
			"filter": doc{"status": "active", "salary": doc{"$gte": 70000}},
			"limit":  50,
		}},
		{Name: "find_one", Group: GroupFind, Payload: doc{
			"filter": doc{"$or": list{doc{"age": doc{"$gte": 40}}, doc{"salary": doc{"$gte": 100000}}}},
		}},
		{Name: "find_one_and_delete", Group: GroupFind, Payload: doc{
			"filter": doc{"status": "inactive"},
		}},
		{Name: "find_one_and_replace", Group: GroupFind, Payload: doc{
			"filter": doc{"email": "diana@example.com"},
			"replacement": doc{
				"name": "Diana Ross-Smith", "age": 29, "email": "diana@example.com", "status": "active",
				"department": "Sales", "salary": 82000,
			},
		}},
		{Name: "find_one_and_update", Group: GroupFind, Payload: doc{
			"filter": doc{"department": "Sales"},
			"update": doc{"$set": doc{"last_activity": "2024-12-09"}},
		}},
		{Name: "find_and_modify", Group: GroupFind, Payload: doc{
			"filter": doc{"salary": doc{"$gte": 100000}},
			"update": doc{"$set": doc{"high_earner": true}},
		}},
		{Name: "update_one", Group: GroupUpdate, Payload: doc{
			"filter": doc{"name": "Alice Johnson"},
			"update": doc{"$set": doc{"status": "senior"}, "$inc": doc{"salary": 15000}},
		}},
		{Name: "update_many", Group: GroupUpdate, Payload: doc{
			"filter": doc{"department": "Engineering"},
			"update": doc{"$set": doc{"review_pending": true}},
		}},
		{Name: "update", Group: GroupUpdate, Payload: doc{
			"filter": doc{"name": "Bob Smith"},
			"update": doc{"$set": doc{"address": "San Francisco"}},
		}},
		{Name: "replace_one", Group: GroupUpdate, Payload: doc{
			"filter": doc{"name": "Fiona Garcia"},
			"replacement": doc{
				"name": "Fiona Garcia", "age": 32, "department": "HR", "salary": 75000, "promoted": true,
			},
		}},
		{Name: "delete_one", Group: GroupDelete, Payload: doc{
			"filter": doc{"status": "temporary"},
		}},
		{Name: "delete_many", Group: GroupDelete, Payload: doc{
			"filter": doc{"department": "Intern"},
		}},
		{Name: "remove", Group: GroupDelete, Payload: doc{
			"filter": doc{"name": "NonExistent User"},
		}},
		{Name: "count_documents", Group: GroupCount, Payload: doc{
			"filter": doc{"department": "Engineering"},
		}},
		{Name: "estimated_document_count", Group: GroupCount, Payload: doc{}},
		{Name: "count", Group: GroupCount, Payload: doc{
			"filter": doc{"salary": doc{"$gte": 80000}},
		}},
		{Name: "aggregate", Group: GroupAggregation, Payload: doc{
			"pipeline": list{
				doc{"$match": doc{"status": "active"}},
				doc{"$group": doc{"_id": "$department", "avg_salary": doc{"$avg": "$salary"}, "count": doc{"$sum": 1}}},
				doc{"$sort": doc{"avg_salary": -1}},
			},
		}},
		{Name: "map_reduce", Group: GroupAggregation, Payload: doc{
			"map":    "function() { emit(this.department, this.salary); }",
			"reduce": "function(key, values) { return Array.sum(values); }",
			"out":    "salary_by_dept",
		}},
		{Name: "inline_map_reduce", Group: GroupAggregation, Payload: doc{
			"map":    "function() { emit(this.department, 1); }",
			"reduce": "function(key, values) { return Array.sum(values); }",
		}},
		{Name: "create_index", Group: GroupIndex, Payload: doc{
			"keys": list{list{"email", 1}},
		}},
		{Name: "create_indexes", Group: GroupIndex, Payload: doc{
			"indexes": list{
				doc{"keys": list{list{"department", 1}, list{"salary", -1}}},
				doc{"keys": list{list{"status", 1}}},
			},
		}},
		{Name: "ensure_index", Group: GroupIndex, Payload: doc{
			"keys": list{list{"age", 1}},
		}},
		{Name: "reindex", Group: GroupIndex, Payload: doc{}},
		{Name: "drop_index", Group: GroupIndex, Payload: doc{
			"index_name": "email_1",
		}},
		{Name: "drop_indexes", Group: GroupIndex, Payload: doc{}},
		{Name: "distinct", Group: GroupCollection, Payload: doc{
			"field": "department",
		}},
		{Name: "rename", Group: GroupCollection, Payload: doc{
			"new_name": "test_collection_backup",
		}},
		{Name: "bulk_write", Group: GroupBulk, Payload: doc{
			"operations": list{
				doc{"insertOne": doc{"document": doc{"name": "Bulk User 1", "age": 25, "department": "Temp"}}},
				doc{"updateOne": doc{"filter": doc{"name": "Bulk User 1"}, "update": doc{"$set": doc{"bulk_tested": true}}}},
				doc{"deleteOne": doc{"filter": doc{"name": "Bulk User 1"}}},
			},
		}},
		{Name: "drop", Group: GroupCollection, Payload: doc{}},
	}
}
