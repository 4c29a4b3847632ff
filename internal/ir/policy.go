package ir

// Policy is one row returned by get_policies.
type Policy struct {
	Name       string        `json:"name"`
	TableName  string        `json:"table_name"`
	Command    PolicyCommand `json:"command"`    // SELECT, INSERT, UPDATE, DELETE, ALL
	Definition string        `json:"definition"` // USING expression
}
