package domain

// PanelMetrics is the JSON snapshot served at GET /v1/metrics/panel.
type PanelMetrics struct {
	SubmissionsOK     int64   `json:"submissionsOk"`
	SubmissionsFailed int64   `json:"submissionsFailed"`
	SessionsStarted   int64   `json:"sessionsStarted"`
	SessionsCleared   int64   `json:"sessionsCleared"`
	UpstreamErrors    int64   `json:"upstreamErrors"`
	FailureRate       float64 `json:"failureRate"`
}
