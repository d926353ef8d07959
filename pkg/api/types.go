package api

// RunRequest asks the server to start a regeneration run
type RunRequest struct {
	Force  bool   `json:"force"`
	DryRun bool   `json:"dry_run"`
	Actor  string `json:"actor,omitempty"`
}

// RunResponse contains the completed run record
type RunResponse struct {
	Run interface{} `json:"run"`
}

// ListRunsResponse contains all recorded runs
type ListRunsResponse struct {
	Runs []interface{} `json:"runs"`
}

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}
