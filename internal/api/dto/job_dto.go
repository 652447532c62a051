package dto

type JobStatusDTO struct {
	JobID       string `json:"job_id"`
	OwnerID     string `json:"owner_id"`
	GuildID     string `json:"guild_id,omitempty"`
	Language    string `json:"language"`
	Status      string `json:"status"`
	Explanation string `json:"explanation"`
	DeclaredAt  string `json:"declared_at"`
	LastUpdate  string `json:"last_update"`
}

type ListActiveJobsResponse struct {
	Jobs  []JobStatusDTO `json:"jobs"`
	Count int            `json:"count"`
}

type ListHistoryRequest struct {
	Outcome  string `form:"outcome"`
	PageSize int    `form:"page_size"`
	Cursor   string `form:"cursor"`
}

type HistoryEntryDTO struct {
	JobID       string `json:"job_id"`
	Language    string `json:"language"`
	FinalStatus string `json:"final_status"`
	Outcome     string `json:"outcome"`
	Detail      string `json:"detail,omitempty"`
	DeclaredAt  string `json:"declared_at"`
	FinishedAt  string `json:"finished_at"`
}

type ListHistoryResponse struct {
	Entries    []HistoryEntryDTO `json:"entries"`
	NextCursor string            `json:"next_cursor,omitempty"`
}
