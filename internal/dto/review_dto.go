package dto

import "time"

type ChunkInput struct {
	ChunkId    string   `json:"chunk_id" validate:"required"`
	Text       string   `json:"text"`
	SourceName string   `json:"source_name"`
	Citations  []string `json:"citations"`
}

type IssueInput struct {
	IssueId                    string   `json:"issue_id"`
	Title                      string   `json:"title"`
	Text                       string   `json:"text"`
	Severity                   string   `json:"severity" validate:"omitempty,oneof=high medium low"`
	Score                      *float64 `json:"score"`
	Status                     string   `json:"status" validate:"omitempty,oneof=open in_progress resolved"`
	Summary                    string   `json:"summary"`
	Notes                      string   `json:"notes"`
	Citations                  []string `json:"citations"`
	SuggestedChanges           []string `json:"suggested_changes"`
	AcceptedChangeInstructions string   `json:"accepted_change_instructions"`
}

type StartSessionRequest struct {
	SessionId        string       `json:"session_id"`
	CompanyName      string       `json:"company_name"`
	DocId            string       `json:"doc_id"`
	DocTitle         string       `json:"doc_title"`
	FullDocumentText string       `json:"full_document_text"`
	GreenScore       *float64     `json:"green_score" validate:"omitempty,gte=0,lte=100"`
	DocumentChunks   []ChunkInput `json:"document_chunks" validate:"dive"`
	ChunkIds         []string     `json:"chunk_ids"`
	Issues           []IssueInput `json:"issues" validate:"dive"`
	Nitpicks         []IssueInput `json:"nitpicks" validate:"dive"` // alias of issues
}

// AllIssues merges the two accepted spellings of the issue list, issues first.
func (r *StartSessionRequest) AllIssues() []IssueInput {
	if len(r.Nitpicks) == 0 {
		return r.Issues
	}
	all := make([]IssueInput, 0, len(r.Issues)+len(r.Nitpicks))
	all = append(all, r.Issues...)
	return append(all, r.Nitpicks...)
}

type StartSessionResponse struct {
	SessionId            string `json:"session_id"`
	Status               string `json:"status"` // "created" | "overwritten"
	IssueCount           int    `json:"issue_count"`
	ChunkCount           int    `json:"chunk_count"`
	DroppedCitationCount int    `json:"dropped_citation_count"`
}

type IssueResponse struct {
	IssueId                    string   `json:"issue_id"`
	Title                      string   `json:"title"`
	Text                       string   `json:"text,omitempty"`
	Severity                   string   `json:"severity,omitempty"`
	Score                      *float64 `json:"score,omitempty"`
	Status                     string   `json:"status"`
	Summary                    string   `json:"summary"`
	Notes                      string   `json:"notes,omitempty"`
	Citations                  []string `json:"citations"`
	SuggestedChanges           []string `json:"suggested_changes"`
	AcceptedChangeInstructions string   `json:"accepted_change_instructions"`
}

type SessionResponse struct {
	SessionId           string            `json:"session_id"`
	CompanyName         string            `json:"company_name"`
	DocId               string            `json:"doc_id"`
	DocTitle            string            `json:"doc_title"`
	GreenScore          *float64          `json:"green_score,omitempty"`
	Status              string            `json:"status"`
	PendingResolutionId *string           `json:"pending_resolution_id"`
	Issues              []IssueResponse   `json:"issues"`
	ChunkIds            []string          `json:"chunk_ids"`
	ArtifactPaths       map[string]string `json:"artifact_paths"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
	CompletedAt         *time.Time        `json:"completed_at,omitempty"`
}

type ChatRequest struct {
	Message        string `json:"message" validate:"required,notblank"`
	ConversationId string `json:"conversation_id"`
	IssueId        string `json:"issue_id"`
}

type StatusUpdateResponse struct {
	IssueId        string `json:"issue_id"`
	PreviousStatus string `json:"previous_status"`
	NewStatus      string `json:"new_status"`
	Reason         string `json:"reason"`
}

type ChatResponse struct {
	Answer              string                 `json:"answer"`
	Citations           []string               `json:"citations"`
	ChunkCitations      []string               `json:"chunk_citations"`
	InferredUpdates     []StatusUpdateResponse `json:"inferred_updates"`
	PendingResolutionId *string                `json:"pending_resolution_id"`
	TargetIssueId       *string                `json:"target_issue_id"`
	SessionStatus       string                 `json:"session_status"`
}

type CleanupRequest struct {
	Confirmed    *bool  `json:"confirmed" validate:"required"`
	InvestorNote string `json:"investor_note"`
}

type CleanupResponse struct {
	SessionId          string            `json:"session_id"`
	Status             string            `json:"status"`
	ArtifactPaths      map[string]string `json:"artifact_paths"`
	UnresolvedIssueIds []string          `json:"unresolved_issue_ids"`
	ChangeLog          []string          `json:"change_log"`
	EmailSent          bool              `json:"email_sent"`
}

type ArtifactsResponse struct {
	SessionId         string            `json:"session_id"`
	ArtifactPaths     map[string]string `json:"artifact_paths"`
	ExistingArtifacts map[string]bool   `json:"existing_artifacts"`
}

type HealthResponse struct {
	Status              string            `json:"status"`
	VectorBackend       string            `json:"vector_backend"`
	VectorState         string            `json:"vector_state"`
	VectorReachable     bool              `json:"vector_reachable"`
	VectorDetail        string            `json:"vector_detail"`
	VectorClientPresent bool              `json:"vector_client_installed"`
	EmbeddingProvider   string            `json:"embedding_provider"`
	EmbeddingConfigured bool              `json:"embedding_configured"`
	LLMProvider         string            `json:"llm_provider"`
	LLMModel            string            `json:"llm_model"`
	LLMConfigured       bool              `json:"llm_configured"`
	Details             map[string]string `json:"details"`
}
