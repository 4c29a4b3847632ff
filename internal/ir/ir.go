package ir

// Result is the snapshot produced by one successful extraction. It is only
// ever built once all three procedures have answered with valid rows, so a
// Result is never partially populated.
type Result struct {
	Policies  []Policy   `json:"policies"`
	Functions []Function `json:"functions"`
	Triggers  []Trigger  `json:"triggers"`
}

// Counts holds the number of rows per tab.
type Counts struct {
	Policies  int
	Functions int
	Triggers  int
}

// NewResult assembles a Result, replacing nil slices with empty ones so that
// an empty extraction serialises as [] rather than null.
func NewResult(policies []Policy, functions []Function, triggers []Trigger) *Result {
	if policies == nil {
		policies = []Policy{}
	}
	if functions == nil {
		functions = []Function{}
	}
	if triggers == nil {
		triggers = []Trigger{}
	}
	return &Result{
		Policies:  policies,
		Functions: functions,
		Triggers:  triggers,
	}
}

// Counts returns the row count of each section.
func (r *Result) Counts() Counts {
	return Counts{
		Policies:  len(r.Policies),
		Functions: len(r.Functions),
		Triggers:  len(r.Triggers),
	}
}

// IsEmpty reports whether the extraction found nothing at all.
func (r *Result) IsEmpty() bool {
	return len(r.Policies) == 0 && len(r.Functions) == 0 && len(r.Triggers) == 0
}
