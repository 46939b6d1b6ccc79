// Package errors provides structured, actionable error messages for idom.
//
// Every error carries a code that maps to a registered template:
//   - a short message describing the problem
//   - a longer explanation
//   - an optional documentation URL
//
// # Error Categories
//
// Errors are organized into categories:
//   - usage: misuse of the patch engine (calls outside a patch, unclosed
//     tags, builder phase violations)
//   - host: the host tree cannot satisfy the requested operation
//   - script: instruction programs that fail to parse or evaluate
//   - config: invalid or missing idom.json
//   - playground: HTTP and WebSocket session errors
//   - cli: command line errors
//
// # Usage
//
//	err := errors.New("E107").
//	    WithReason("received a call to close %q but %q was open", "b", "a").
//	    WithSuggestion("Check that every ElementOpen has a matching ElementClose")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E107: Mismatched close tag
//	//
//	//   received a call to close "b" but "a" was open
//	//
//	//   Every ElementClose must name the element opened most recently.
//	//
//	//   Hint: Check that every ElementOpen has a matching ElementClose
//
// Script errors point at the instruction that failed:
//
//	err := errors.New("E202").WithLocation("list.yaml", 4, 3)
package errors
