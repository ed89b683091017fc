package model

import "time"

// Records below are the JSON payloads stored next to each vector point.

type ReviewSessionRecord struct {
	SessionId           string               `json:"session_id"`
	CompanyName         string               `json:"company_name"`
	DocId               string               `json:"doc_id"`
	DocTitle            string               `json:"doc_title"`
	FullDocumentText    string               `json:"full_document_text"`
	GreenScore          *float64             `json:"green_score,omitempty"`
	Status              string               `json:"status"`
	PendingResolutionId string               `json:"pending_resolution_id,omitempty"`
	Issues              []TrackedIssueRecord `json:"issues"`
	ChunkIds            []string             `json:"chunk_ids"`
	Artifacts           map[string]string    `json:"artifacts,omitempty"`
	ChangeLog           []string             `json:"change_log,omitempty"`
	CreatedAt           time.Time            `json:"created_at"`
	UpdatedAt           time.Time            `json:"updated_at"`
	CompletedAt         *time.Time           `json:"completed_at,omitempty"`
}

type TrackedIssueRecord struct {
	SessionId                  string    `json:"session_id,omitempty"`
	IssueId                    string    `json:"issue_id"`
	Title                      string    `json:"title"`
	Text                       string    `json:"text,omitempty"`
	Summary                    string    `json:"summary,omitempty"`
	Notes                      string    `json:"notes,omitempty"`
	Severity                   string    `json:"severity,omitempty"`
	Score                      *float64  `json:"score,omitempty"`
	Citations                  []string  `json:"citations"`
	SuggestedChanges           []string  `json:"suggested_changes,omitempty"`
	Status                     string    `json:"status"`
	AcceptedChangeInstructions string    `json:"accepted_change_instructions,omitempty"`
	LastInvestorMessage        string    `json:"last_investor_message,omitempty"`
	UpdatedAt                  time.Time `json:"updated_at"`
}

type DocumentChunkRecord struct {
	SessionId  string   `json:"session_id"`
	DocId      string   `json:"doc_id"`
	ChunkId    string   `json:"chunk_id"`
	Text       string   `json:"text"`
	SourceName string   `json:"source_name,omitempty"`
	Citations  []string `json:"citations,omitempty"`
}

type ConversationTurnRecord struct {
	SessionId       string               `json:"session_id"`
	ConversationId  string               `json:"conversation_id"`
	TurnId          string               `json:"turn_id"`
	Role            string               `json:"role"`
	Message         string               `json:"message"`
	IssueId         string               `json:"issue_id,omitempty"`
	Citations       []string             `json:"citations"`
	InferredUpdates []StatusUpdateRecord `json:"inferred_updates"`
	CreatedAt       time.Time            `json:"created_at"`
}

type StatusUpdateRecord struct {
	IssueId        string `json:"issue_id"`
	PreviousStatus string `json:"previous_status"`
	NewStatus      string `json:"new_status"`
	Reason         string `json:"reason"`
}
