package cron

type RunResponse struct {
	Job      string `json:"job"`
	Success  bool   `json:"success"`
	Duration string `json:"duration"`
	Error    string `json:"error,omitempty"`
}
