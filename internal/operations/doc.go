// Package operations runs the harness's fixed catalog of collection
// operations from start to finish.
//
// A Catalog is an ordered list of Descriptors, each naming one operation and
// carrying the payload it runs with. DefaultCatalog returns the plan the
// harness ships: document operations first, index creation before index
// removal, rename ahead of the terminal drop. Catalog.Validate enforces those
// ordering rules, so a misordered plan is rejected at startup rather than
// discovered mid-run.
//
// The Executor walks the catalog strictly one operation at a time. Every
// operation yields an ExecutionResult in catalog order; a failure is recorded
// and the run moves on to the next entry. Progress is pushed through a
// Publisher as typed events (start, operation_start, operation_complete,
// complete) on a fire-and-forget basis, so a slow or absent listener never
// stalls the run.
package operations
