package errors

import "slices"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

const docBase = "https://vango.dev/docs/idom/errors/"

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Patch Engine Usage (E101-E119, W101-W119)
	// ============================================

	"E101": {
		Category: CategoryUsage,
		Message:  "Called outside of a patch",
		Detail:   "Element, text and cursor operations are only valid while a PatchInner or PatchOuter call is running.",
		DocURL:   docBase + "E101",
	},
	"E102": {
		Category: CategoryUsage,
		Message:  "One or more tags were not closed",
		Detail:   "The description function returned while elements opened with ElementOpen were still open. Every open needs a matching ElementClose.",
		DocURL:   docBase + "E102",
	},
	"E103": {
		Category: CategoryUsage,
		Message:  "Called between ElementOpenStart and ElementOpenEnd",
		Detail:   "Only Attr and Key may be called while an element's attributes are being declared.",
		DocURL:   docBase + "E103",
	},
	"E104": {
		Category: CategoryUsage,
		Message:  "Called inside a skipped element",
		Detail:   "After Skip the remaining children of the current element are left untouched, so no further child declarations are allowed before ElementClose.",
		DocURL:   docBase + "E104",
	},
	"E105": {
		Category: CategoryUsage,
		Message:  "Called outside ElementOpenStart",
		Detail:   "Attr and Key may only be called after ElementOpenStart and before ElementOpenEnd.",
		DocURL:   docBase + "E105",
	},
	"E106": {
		Category: CategoryUsage,
		Message:  "ElementOpenEnd without ElementOpenStart",
		Detail:   "ElementOpenEnd must be called after calling ElementOpenStart.",
		DocURL:   docBase + "E106",
	},
	"E107": {
		Category: CategoryUsage,
		Message:  "Mismatched close tag",
		Detail:   "Every ElementClose must name the element opened most recently.",
		DocURL:   docBase + "E107",
	},
	"E108": {
		Category: CategoryUsage,
		Message:  "Skip after child declarations",
		Detail:   "Skip must come before any child declarations inside the current element.",
		DocURL:   docBase + "E108",
	},
	"E109": {
		Category: CategoryUsage,
		Message:  "Patched element must have exactly one top level call",
		Detail:   "PatchOuter replaces a single element, so the description must declare exactly one top level element or nothing at all.",
		DocURL:   docBase + "E109",
	},
	"E110": {
		Category: CategoryHost,
		Message:  "Host tree cannot satisfy the operation",
		Detail:   "The root node is missing, has no owner document, or the host tree rejected a structural change.",
		DocURL:   docBase + "E110",
	},
	"E111": {
		Category: CategoryUsage,
		Message:  "Malformed attribute list",
		Detail:   "Attribute lists alternate names and values, so they must have an even length and every name must be a string.",
		DocURL:   docBase + "E111",
	},
	"W101": {
		Category: CategoryUsage,
		Message:  "PatchOuter root has no parent",
		Detail:   "PatchOuter requires the node to have a parent if there is a key. Without a parent a replacement element cannot be inserted into the tree.",
		DocURL:   docBase + "W101",
	},

	// ============================================
	// Script Programs (E201-E219)
	// ============================================

	"E201": {
		Category: CategoryScript,
		Message:  "Failed to parse program",
		Detail:   "The program is not valid YAML or JSON.",
	},
	"E202": {
		Category: CategoryScript,
		Message:  "Unknown instruction",
		Detail:   "Each instruction must have exactly one of: open, close, void, text, skip, skipNode, each, if.",
	},
	"E203": {
		Category: CategoryScript,
		Message:  "Invalid instruction",
		Detail:   "The instruction is missing a required field or has conflicting fields.",
	},
	"E204": {
		Category: CategoryScript,
		Message:  "Expression failed to compile",
		Detail:   "Expressions use the expr language. Data fields are available by name.",
	},
	"E205": {
		Category: CategoryScript,
		Message:  "Expression failed to evaluate",
	},
	"E206": {
		Category: CategoryScript,
		Message:  "each requires a list",
		Detail:   "The items expression of an each block must evaluate to a list or an array.",
	},
	"E207": {
		Category: CategoryScript,
		Message:  "Program violated patch rules",
		Detail:   "Replaying the program triggered a patch engine usage error.",
	},

	// ============================================
	// Configuration (E301-E319)
	// ============================================

	"E301": {
		Category: CategoryConfig,
		Message:  "Invalid idom.json",
		Detail:   "The configuration file could not be read or parsed.",
	},
	"E302": {
		Category: CategoryConfig,
		Message:  "Configuration not found",
		Detail:   "No idom.json was found in the directory or any parent directory.",
	},
	"E303": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
	},

	// ============================================
	// Playground (E401-E419)
	// ============================================

	"E401": {
		Category: CategoryPlayground,
		Message:  "Session not found",
	},
	"E402": {
		Category: CategoryPlayground,
		Message:  "Invalid request body",
	},
	"E403": {
		Category: CategoryPlayground,
		Message:  "Invalid JSON Patch",
		Detail:   "Data updates use RFC 6902 JSON Patch documents.",
	},
	"E404": {
		Category: CategoryPlayground,
		Message:  "Patch failed",
	},
	"E405": {
		Category: CategoryPlayground,
		Message:  "Invalid WebSocket message",
	},
	"E406": {
		Category: CategoryPlayground,
		Message:  "Too many sessions",
		Detail:   "The playground has reached its session limit. Delete unused sessions or raise serve.maxSessions.",
	},

	// ============================================
	// CLI (E501-E519)
	// ============================================

	"E501": {
		Category: CategoryCLI,
		Message:  "Cannot read input",
	},
	"E502": {
		Category: CategoryCLI,
		Message:  "Cannot write output",
	},
	"E503": {
		Category: CategoryCLI,
		Message:  "Unknown error code",
	},
}

// GetAllCodes returns all registered error codes in sorted order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

