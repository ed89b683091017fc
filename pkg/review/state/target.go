package state

import (
	"regexp"

	"doc-review-be/internal/entity"
)

var issueTokenPattern = regexp.MustCompile(`(issue_[a-zA-Z0-9_-]+)`)

// ResolveTarget picks the issue a message is about, first match wins:
// explicit id, issue token in the text, pending id, sole unresolved issue.
// It returns "" when no issue can be inferred.
func ResolveTarget(session *entity.ReviewSession, explicitId string, message string) string {
	if explicitId != "" && session.Issue(explicitId) != nil {
		return explicitId
	}

	if match := issueTokenPattern.FindStringSubmatch(message); match != nil {
		if session.Issue(match[1]) != nil {
			return match[1]
		}
	}

	if session.PendingResolutionId != "" && session.Issue(session.PendingResolutionId) != nil {
		return session.PendingResolutionId
	}

	if unresolved := session.UnresolvedIssues(); len(unresolved) == 1 {
		return unresolved[0].IssueId
	}

	return ""
}
