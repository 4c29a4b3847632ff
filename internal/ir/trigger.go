package ir

import "fmt"

// Trigger is one row returned by get_triggers. Definition is the output of
// pg_get_triggerdef and carries no statement terminator.
type Trigger struct {
	Name       string        `json:"name"`
	TableName  string        `json:"table_name"`
	Event      TriggerLevel  `json:"event"`  // ROW, STATEMENT
	Timing     TriggerTiming `json:"timing"` // BEFORE, AFTER, INSTEAD OF
	Definition string        `json:"definition"`
}

// Title is the label shown above the trigger's code view.
func (tr *Trigger) Title() string {
	return fmt.Sprintf("%s (%s)", tr.Name, tr.TableName)
}
