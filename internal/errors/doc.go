// Package errors provides structured, actionable error messages for the
// statekit CLI and devtools server.
//
// # Error Categories
//
// Errors are organized into categories:
//   - registry: dependency lookups and construction failures
//   - reactive: subscriber failures and tracked-run misuse
//   - config: statekit.json loading and validation
//   - devtools: the inspector HTTP and websocket server
//
// # Error Codes
//
// Each error has a unique code (e.g., "E001") that maps to:
//   - A short message describing the error
//   - A detailed explanation
//   - A documentation URL
//
// # Usage
//
//	_, err := inject.Find[*Database](registry)
//	if err != nil {
//	    errors.PrintError(errors.Classify(err))
//	}
//	// Output:
//	// ERROR E001: Dependency not registered
//	//
//	//   No instance or factory is registered for the requested type.
//	//
//	//   Hint: Register it with inject.Put or inject.LazyPut before Find
//	//
//	//   Learn more: https://statekit.dev/docs/errors/E001
package errors
