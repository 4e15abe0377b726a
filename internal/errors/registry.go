package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
	DocURL     string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Registry and Reactive Errors (E001-E099)
	// ============================================

	"E001": {
		Category:   CategoryRegistry,
		Message:    "Dependency not registered",
		Detail:     "No instance or factory is registered for the requested type.",
		Suggestion: "Register it with inject.Put or inject.LazyPut before Find",
		DocURL:     "https://statekit.dev/docs/errors/E001",
	},
	"E002": {
		Category:   CategoryRegistry,
		Message:    "Dependency construction failed",
		Detail:     "A lazy or async factory returned an error or panicked. Nothing was registered; a lazy factory is retried on the next Find.",
		Suggestion: "Check the wrapped cause; Lookup can be used for optional dependencies",
		DocURL:     "https://statekit.dev/docs/errors/E002",
	},
	"E003": {
		Category:   CategoryReactive,
		Message:    "Subscriber failed during notification",
		Detail:     "An observer panicked while being notified of a change. The remaining subscribers still ran and the value was stored.",
		DocURL:     "https://statekit.dev/docs/errors/E003",
	},
	"E004": {
		Category:   CategoryReactive,
		Message:    "Nested tracked run",
		Detail:     "A tracked run was started while another one was active. Only one observer can collect dependencies at a time.",
		Suggestion: "Render child views after the parent's run returns, or read through Tracker.Untracked",
		DocURL:     "https://statekit.dev/docs/errors/E004",
	},
	"E005": {
		Category: CategoryReactive,
		Message:  "View disposed",
		Detail:   "Render was called on a view after Dispose.",
		DocURL:   "https://statekit.dev/docs/errors/E005",
	},

	// ============================================
	// Configuration Errors (E100-E119)
	// ============================================

	"E101": {
		Category:   CategoryConfig,
		Message:    "Configuration file not found",
		Detail:     "statekit.json was not found in the current directory or any parent.",
		Suggestion: "Pass --config or create statekit.json",
		DocURL:     "https://statekit.dev/docs/errors/E101",
	},
	"E102": {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
		Detail:   "statekit.json could not be parsed or contains invalid values.",
		DocURL:   "https://statekit.dev/docs/errors/E102",
	},
	"E103": {
		Category: CategoryConfig,
		Message:  "Configuration write failed",
		Detail:   "The configuration could not be written to disk.",
		DocURL:   "https://statekit.dev/docs/errors/E103",
	},

	// ============================================
	// Devtools Errors (E200-E219)
	// ============================================

	"E201": {
		Category:   CategoryDevtools,
		Message:    "Devtools server failed",
		Detail:     "The inspector HTTP server stopped with an error.",
		Suggestion: "Check that the address is free, or pass a different one with --addr",
		DocURL:     "https://statekit.dev/docs/errors/E201",
	},
	"E202": {
		Category: CategoryDevtools,
		Message:  "Websocket upgrade failed",
		Detail:   "A devtools client could not be upgraded to a websocket connection.",
		DocURL:   "https://statekit.dev/docs/errors/E202",
	},

	// ============================================
	// CLI Errors (E300-E319)
	// ============================================

	"E301": {
		Category: CategoryCLI,
		Message:  "Invalid command arguments",
		Detail:   "The command was called with missing or invalid arguments.",
		DocURL:   "https://statekit.dev/docs/errors/E301",
	},
}

// GetAllCodes returns all registered error codes, sorted.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
