package agent

// Classify decides whether an execution outcome is meaningfully tabular and
// shapes it for rendering. Zero-row successes stay tabular with an empty row
// sequence; failures and column-less successes do not.
func Classify(outcome Outcome) TableData {
	if outcome.Failed() || len(outcome.Columns) == 0 {
		return TableData{IsTabular: false}
	}
	rows := outcome.Rows
	if rows == nil {
		rows = [][]any{}
	}
	return TableData{
		IsTabular: true,
		Columns:   outcome.Columns,
		Rows:      rows,
	}
}
