package errors

import (
	"sort"

	"github.com/vango-dev/vroute/pkg/routeerr"
)

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Routing Errors (E100-E119)
	// ============================================

	"E100": {
		Category:   CategoryRouting,
		Message:    "Duplicate route params",
		Detail:     "A param name is declared more than once across the host, path, query and hash templates of a route and its ancestors.",
		Suggestion: "Rename one of the params; names are case-sensitive and must be unique per route.",
	},
	"E101": {
		Category:   CategoryRouting,
		Message:    "Duplicate route names",
		Detail:     "Two routes compose to the same dot-joined name.",
		Suggestion: "Give one of the routes a different name, or nest it under a named parent.",
	},
	"E102": {
		Category: CategoryRouting,
		Message:  "Multiple route redirects",
		Detail:   "A route may redirect to at most one route and be redirected to from at most one route.",
	},
	"E103": {
		Category: CategoryRouting,
		Message:  "Invalid route param value",
		Detail:   "A param value is missing or does not satisfy the param's type.",
	},
	"E104": {
		Category:   CategoryRouting,
		Message:    "Invalid route URL",
		Detail:     "The assembled URL is not a valid URL.",
		Suggestion: "Start path templates with \"/\".",
	},
	"E105": {
		Category:   CategoryRouting,
		Message:    "Route not found",
		Detail:     "No route is registered under this name.",
		Suggestion: "Run \"vroute routes\" to list the route names.",
	},
	"E106": {
		Category: CategoryRouting,
		Message:  "Route disabled",
		Detail:   "The route is marked disabled and cannot be resolved.",
	},
	"E107": {
		Category: CategoryRouting,
		Message:  "Missing route context",
		Detail:   "A route redirects to a route that is not registered with this router.",
	},
	"E108": {
		Category:   CategoryRouting,
		Message:    "Invalid template syntax",
		Detail:     "A placeholder is malformed.",
		Suggestion: "Use [name], [?name] or [...name] with letters, digits, '_' or '-'.",
	},
	"E109": {
		Category: CategoryRouting,
		Message:  "No route matches URL",
		Detail:   "The URL resolves to a NotFound rejection.",
	},
	"E110": {
		Category: CategoryRouting,
		Message:  "Too many redirects",
		Detail:   "The navigation kept redirecting. Check redirects for cycles.",
	},

	// ============================================
	// Config Errors (E120-E139)
	// ============================================

	"E120": {
		Category:   CategoryConfig,
		Message:    "Manifest not found",
		Detail:     "No vroute.json or vroute.yaml was found in the directory or its parents.",
		Suggestion: "Pass --config with the manifest path.",
	},
	"E121": {
		Category: CategoryConfig,
		Message:  "Manifest could not be parsed",
	},
	"E122": {
		Category: CategoryConfig,
		Message:  "Manifest validation failed",
	},
	"E123": {
		Category:   CategoryConfig,
		Message:    "Unknown param type",
		Suggestion: "Use string, number, boolean, uuid, regexp:<re>, validate:<tag> or array:<type>.",
	},
	"E124": {
		Category: CategoryConfig,
		Message:  "Manifest could not be fetched from S3",
	},
	"E125": {
		Category: CategoryConfig,
		Message:  "Invalid redirect in manifest",
		Detail:   "A redirect names a route that does not exist.",
	},

	// ============================================
	// CLI Errors (E140-E159)
	// ============================================

	"E140": {
		Category: CategoryCLI,
		Message:  "Invalid arguments",
	},
	"E141": {
		Category: CategoryCLI,
		Message:  "Inspector server failed",
	},
	"E142": {
		Category:   CategoryCLI,
		Message:    "Invalid --param flag",
		Suggestion: "Use --param name=value, repeated for every param.",
	},
}

// CodeOf returns the code of a routing error, or "" for other errors.
func CodeOf(err error) string {
	return routeerr.Code(err)
}

// GetAllCodes returns all registered error codes, sorted.
func GetAllCodes() []string {
	out := make([]string, 0, len(registry))
	for code := range registry {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
