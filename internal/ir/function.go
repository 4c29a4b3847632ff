package ir

import "fmt"

// Function is one row returned by get_functions. Definition holds the full
// CREATE OR REPLACE FUNCTION statement including its terminator.
type Function struct {
	Name       string `json:"name"`
	Schema     string `json:"schema"`
	Language   string `json:"language"`
	Definition string `json:"definition"`
	Arguments  string `json:"arguments"`
}

// Title is the label shown above the function's code view.
func (f *Function) Title() string {
	return fmt.Sprintf("%s (%s)", f.Name, f.Schema)
}

// Signature returns schema.name(arguments), which identifies an overload.
func (f *Function) Signature() string {
	return fmt.Sprintf("%s.%s(%s)", f.Schema, f.Name, f.Arguments)
}
