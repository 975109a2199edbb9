// Package errors provides coded, actionable error messages for the vroute
// command line.
//
// Library packages return typed errors (see pkg/routeerr). The CLI turns
// them into coded errors that:
//   - Carry a stable code (e.g., "E105") and category
//   - Explain what went wrong in plain language
//   - Suggest a fix
//   - Point at the manifest line when one is known
//
// # Error Codes
//
//   - E100-E119: routing (composition, matching, assembly, navigation)
//   - E120-E139: configuration (manifest loading and validation)
//   - E140-E159: command line usage and serving
//
// # Usage
//
//	err := errors.New("E121").
//	    WithLocation("vroute.yaml", 12, 5).
//	    WithSuggestion("Indent children under their parent route")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E121: Manifest could not be parsed
//	//
//	//   vroute.yaml:12:5
//	//
//	//     10 │   - name: users
//	//     11 │     path: /users
//	//   → 12 │    children:
//	//        │     ^
//	//
//	//   Hint: Indent children under their parent route
package errors
