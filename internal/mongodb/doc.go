// Package mongodb wraps the official driver behind the harness's operation
// surface: one method per supported collection operation, each returning the
// JSON-shaped result document its HTTP endpoint exposes.
//
// Operations run against a Handle naming the current target collection.
// Rename and drop are the only operations that change the handle: rename
// moves it to the new collection name, drop resets it to the configured base
// collection so later operations land on a fresh collection instead of a
// dead reference.
//
// Invoke dispatches an operation by name from a decoded JSON payload and is
// the single parsing path shared by the HTTP handlers and the sequential
// runner. Legacy driver calls removed from modern drivers (insert, save,
// update, remove, count, find_and_modify, ensure_index) are emulated with
// their modern equivalents; reindex, group and map_reduce are issued as raw
// database commands and fail on server versions that no longer ship them,
// which the harness reports as ordinary operation failures.
package mongodb
