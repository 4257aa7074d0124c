package agent

// TableData is the rendering-oriented view over an execution outcome.
// Zero-row successes are still tabular; failures and non-row-returning
// statements are not.
type TableData struct {
	IsTabular bool     `json:"is_tabular"`
	Columns   []string `json:"columns"`
	Rows      [][]any  `json:"rows"`
}

// Result is the aggregate handed to every caller: CLI, web API, and library
// consumers. Success=false means the pipeline itself failed and only Error is
// populated. Success=true covers every completed pipeline run, including runs
// whose generated SQL was rejected or failed to execute.
type Result struct {
	Success     bool       `json:"success"`
	Query       string     `json:"query,omitempty"`
	QueryNote   string     `json:"query_note,omitempty"`
	Explanation string     `json:"result,omitempty"`
	TableData   *TableData `json:"table_data,omitempty"`
	SQLError    string     `json:"sql_error,omitempty"`
	Error       string     `json:"error,omitempty"`
	RawResponse string     `json:"raw_response,omitempty"`
}

// Analysis is the outcome of the standalone query-analysis operation.
type Analysis struct {
	Query    string `json:"query"`
	Analysis string `json:"analysis"`
}
