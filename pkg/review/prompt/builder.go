package prompt

import (
	"fmt"
	"strings"

	"doc-review-be/internal/entity"
)

const (
	chatSystemPrompt = "You are an investor document review assistant. " +
		"Only use provided context, be concise, and keep claims grounded. " +
		"If uncertain, state uncertainty explicitly."

	revisionSystemPrompt = "You are a contract editing assistant. Produce a cleaned-up revised version of the document " +
		"based only on requested changes. Keep structure and tone professional."

	emailSystemPrompt = "You are drafting a concise investor follow-up email. " +
		"Return plain text only, no markdown."
)

// Prompt is a system/user pair handed to the generation collaborator
type Prompt struct {
	System string
	User   string
}

// ChatInput carries everything the chat prompt is grounded on
type ChatInput struct {
	Session   *entity.ReviewSession
	TargetId  string
	Message   string
	Citations []string
	Context   []string
}

// Builder renders review prompts
type Builder struct{}

// NewBuilder creates a new prompt builder
func NewBuilder() *Builder {
	return &Builder{}
}

// BuildChat grounds the reply in the issue list and the focused issue detail
func (b *Builder) BuildChat(in ChatInput) Prompt {
	var user strings.Builder
	s := in.Session

	fmt.Fprintf(&user, "Company: %s\n", s.CompanyName)
	fmt.Fprintf(&user, "Document: %s (%s)\n", s.DocTitle, s.DocId)
	fmt.Fprintf(&user, "Green score: %s\n", formatScore(s.GreenScore))
	fmt.Fprintf(&user, "Focused issue:\n%s\n\n", b.focusedIssue(s, in.TargetId))

	user.WriteString("Issue summary:\n")
	for _, issue := range s.Issues {
		fmt.Fprintf(&user, "- %s | %s | %s | %s\n", issue.IssueId, issue.Label(), orNone(issue.Severity), issue.Status)
	}
	user.WriteString("\n")

	if len(in.Context) > 0 {
		user.WriteString("Retrieved document context:\n")
		for _, c := range in.Context {
			fmt.Fprintf(&user, "<context>\n%s\n</context>\n", c)
		}
		user.WriteString("\n")
	}

	fmt.Fprintf(&user, "Investor message: %s\n", in.Message)
	fmt.Fprintf(&user, "Citations to reference if relevant: [%s]\n", strings.Join(in.Citations, ", "))
	user.WriteString("Respond in plain text. Mention concrete next-step edits when useful.")

	return Prompt{System: chatSystemPrompt, User: user.String()}
}

func (b *Builder) focusedIssue(s *entity.ReviewSession, targetId string) string {
	issue := s.Issue(targetId)
	if issue == nil {
		return "None"
	}
	return fmt.Sprintf(
		"Issue %s: %s\nSeverity: %s\nStatus: %s\nSummary: %s\nSuggested changes: [%s]\nAccepted instructions: %s",
		issue.IssueId,
		issue.Label(),
		orNone(issue.Severity),
		issue.Status,
		orNone(issue.Summary),
		strings.Join(issue.SuggestedChanges, "; "),
		orNone(issue.AcceptedChangeInstructions),
	)
}

// CleanupInput is shared by the revision and email prompts
type CleanupInput struct {
	CompanyName        string
	DocTitle           string
	FullText           string
	AcceptedChanges    []string
	UnresolvedIssueIds []string
	InvestorNote       string
}

func (b *Builder) BuildRevision(in CleanupInput) Prompt {
	var user strings.Builder
	fmt.Fprintf(&user, "Company: %s\n", in.CompanyName)
	fmt.Fprintf(&user, "Document: %s\n", in.DocTitle)
	fmt.Fprintf(&user, "Investor note: %s\n\n", orNone(in.InvestorNote))
	fmt.Fprintf(&user, "Requested changes:\n%s\n\n", bullets(in.AcceptedChanges))
	user.WriteString("Original document:\n")
	user.WriteString(in.FullText)
	return Prompt{System: revisionSystemPrompt, User: user.String()}
}

func (b *Builder) BuildEmail(in CleanupInput) Prompt {
	unresolved := "None"
	if len(in.UnresolvedIssueIds) > 0 {
		unresolved = strings.Join(in.UnresolvedIssueIds, ", ")
	}

	var user strings.Builder
	fmt.Fprintf(&user, "Company: %s\n", in.CompanyName)
	fmt.Fprintf(&user, "Document: %s\n", in.DocTitle)
	fmt.Fprintf(&user, "Requested changes:\n%s\n\n", bullets(in.AcceptedChanges))
	fmt.Fprintf(&user, "Unresolved issues: %s\n", unresolved)
	user.WriteString("Draft a professional email asking for these updates before investment proceeds.")
	return Prompt{System: emailSystemPrompt, User: user.String()}
}

func bullets(lines []string) string {
	if len(lines) == 0 {
		return "- None"
	}
	return "- " + strings.Join(lines, "\n- ")
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "None"
	}
	return s
}

func formatScore(score *float64) string {
	if score == nil {
		return "None"
	}
	return fmt.Sprintf("%.1f", *score)
}
