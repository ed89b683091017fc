package response

import (
	"fmt"
	"strings"
)

const ChatFallback = "I captured your feedback and updated the issue workflow state. " +
	"I can suggest precise contract language once a language model is configured."

// RevisedTextFallback keeps the original text and prepends the requested changes.
func RevisedTextFallback(companyName, docTitle, fullText string, acceptedChanges []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Revised Draft for %s - %s\n", companyName, docTitle)
	sb.WriteString("(Fallback mode: preserving original text and requested changes.)\n\n")
	sb.WriteString("Requested changes:\n")
	writeBullets(&sb, acceptedChanges)
	sb.WriteString("\n")
	sb.WriteString(fullText)
	return sb.String()
}

func EmailFallback(companyName, docTitle string, acceptedChanges, unresolvedIssueIds []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Subject: Requested Revisions to %s\n\n", docTitle)
	fmt.Fprintf(&sb, "Hello %s team,\n\n", companyName)
	sb.WriteString("Thank you for sharing the latest document. Before proceeding with investment, we request the following changes:\n\n")
	writeBullets(&sb, acceptedChanges)
	if len(unresolvedIssueIds) > 0 {
		sb.WriteString("\nThe following items remain open but are acknowledged for now:\n")
		fmt.Fprintf(&sb, "- %s\n", strings.Join(unresolvedIssueIds, ", "))
	}
	sb.WriteString("\nPlease send back an updated document reflecting these edits.\n\nBest,\nInvestor")
	return sb.String()
}

func writeBullets(sb *strings.Builder, lines []string) {
	if len(lines) == 0 {
		sb.WriteString("- None\n")
		return
	}
	for _, line := range lines {
		fmt.Fprintf(sb, "- %s\n", line)
	}
}
