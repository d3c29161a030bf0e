// Package shared holds the small set of helpers that sit below every other
// internal package.
//
// Today that is the testutil subpackage: fixtures for common request
// payloads, a buffered slog handler for asserting on log output, and
// builders for JSON request bodies in handler tests.
//
//	func TestSomething(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//
//	    // exercise code with logger, then assert on logs
//	}
//
// Nothing here may import another internal package; shared is the bottom of
// the import graph. Domain logic belongs in the package that owns it.
package shared
