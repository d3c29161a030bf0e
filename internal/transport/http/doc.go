// Package http implements the HTTP handlers for the harness. It is a thin
// layer: handlers parse the JSON body into a payload map, hand it to the
// service layer, and render the uniform envelope.
//
// # Response contract
//
// Every operation endpoint answers:
//
//	{"success": true,  "data": <operation result>}            200
//	{"success": false, "error": <message>}                    400 input faults
//	{"success": false, "error": <message>}                    500 everything else
//
// Input faults are malformed bodies and the dispatch layer's input sentinels;
// all other failures, including server-rejected legacy commands, are 500s.
// The health probes and the Prometheus endpoint sit outside this contract.
//
// # Handler layout
//
// Handlers are grouped the way the API advertises operations: document
// (insert/find/update/delete), query (count/aggregation/distinct), index,
// collection (rename/drop/bulk/stats), runner (run_all) and health. Each
// registers its routes on the shared /api router; one route per operation.
package http
