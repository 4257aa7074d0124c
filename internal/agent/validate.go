package agent

import (
	"fmt"
	"regexp"
	"strings"
)

// Verdict is the safety decision for one extracted statement.
type Verdict struct {
	Allowed bool
	// Reason is a human-readable rejection message when Allowed is false.
	Reason string
	// RewrittenSQL is set when a row cap was appended; callers must run the
	// rewritten form and disclose Note to the user.
	RewrittenSQL string
	Note         string
}

// Validator applies the read-only allow-list policy. Detection is keyword
// based: the decision depends only on the leading statement keyword and on
// chained-statement detection, never on a full parse.
type Validator struct {
	// RowLimitRewrite appends "LIMIT n" to statements without a row-limiting
	// clause. Zero disables the rewrite.
	RowLimitRewrite int
}

var (
	lineCommentRe  = regexp.MustCompile(`(?m)--[^\n]*`)
	blockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)
	rowLimitRe     = regexp.MustCompile(`(?i)\b(limit\s+\d+|fetch\s+first|top\s+\d+)\b`)
	firstTokenRe   = regexp.MustCompile(`^[A-Za-z]+`)
)

func (v Validator) Validate(sqlText string) Verdict {
	stripped := stripComments(sqlText)
	if stripped == "" {
		return Verdict{Allowed: false, Reason: "statement is empty"}
	}

	token := strings.ToUpper(firstTokenRe.FindString(stripped))
	switch token {
	case "SELECT", "WITH":
	default:
		return Verdict{Allowed: false, Reason: fmt.Sprintf("only read-only queries are permitted; %s statements are blocked", tokenLabel(token))}
	}

	if idx := strings.Index(stripped, ";"); idx >= 0 {
		if strings.TrimSpace(stripped[idx+1:]) != "" {
			return Verdict{Allowed: false, Reason: "multiple SQL statements are not permitted"}
		}
	}

	verdict := Verdict{Allowed: true}
	if v.RowLimitRewrite > 0 && !rowLimitRe.MatchString(stripped) {
		// Append on a fresh line so a trailing -- comment cannot swallow the
		// clause and leave the statement unbounded.
		verdict.RewrittenSQL = fmt.Sprintf("%s\nLIMIT %d", StripTrailingSemicolon(sqlText), v.RowLimitRewrite)
		verdict.Note = fmt.Sprintf("A LIMIT %d clause was added to bound the result size.", v.RowLimitRewrite)
	}
	return verdict
}

func stripComments(sqlText string) string {
	stripped := lineCommentRe.ReplaceAllString(sqlText, "")
	stripped = blockCommentRe.ReplaceAllString(stripped, "")
	return strings.TrimSpace(stripped)
}

func tokenLabel(token string) string {
	if token == "" {
		return "non-SQL"
	}
	return token
}
