package agent

import (
	"regexp"
	"strings"
)

// ExtractionMethod tags how the SQL candidate was located in the raw model
// output.
type ExtractionMethod string

const (
	MethodFencedSQL   ExtractionMethod = "fenced-sql"
	MethodFenced      ExtractionMethod = "fenced"
	MethodKeywordScan ExtractionMethod = "keyword-scan"
)

// Extracted is a SQL candidate pulled out of unstructured model output.
type Extracted struct {
	SQL    string
	Method ExtractionMethod
}

var sqlKeywords = []string{"SELECT", "INSERT", "UPDATE", "DELETE", "WITH"}

var proseMarkers = []string{
	"this ", "the ", "note:", "note ", "explanation", "here ", "above ", "in summary",
}

// ExtractSQL isolates a SQL statement from free-form model output. Candidates
// are tried in priority order: a fenced block tagged sql, an untagged fenced
// block starting with a SQL keyword, then a bare keyword-leading line run.
// Returns false when no candidate is found, which is a normal outcome.
func ExtractSQL(raw string) (Extracted, bool) {
	blocks := fencedBlocks(raw)
	for _, block := range blocks {
		if strings.EqualFold(block.tag, "sql") {
			if cleaned := CleanSQL(block.content); cleaned != "" {
				return Extracted{SQL: cleaned, Method: MethodFencedSQL}, true
			}
		}
	}
	for _, block := range blocks {
		if block.tag != "" {
			continue
		}
		cleaned := CleanSQL(block.content)
		if startsWithSQLKeyword(cleaned) {
			return Extracted{SQL: cleaned, Method: MethodFenced}, true
		}
	}

	if candidate := scanKeywordRun(raw); candidate != "" {
		if cleaned := CleanSQL(candidate); cleaned != "" {
			return Extracted{SQL: cleaned, Method: MethodKeywordScan}, true
		}
	}
	return Extracted{}, false
}

type fencedBlock struct {
	tag     string
	content string
}

func fencedBlocks(raw string) []fencedBlock {
	var blocks []fencedBlock
	lines := strings.Split(raw, "\n")
	for i := 0; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(trimmed, "```") {
			continue
		}
		tag := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(trimmed, "```")))
		var content []string
		closed := false
		for j := i + 1; j < len(lines); j++ {
			if strings.HasPrefix(strings.TrimSpace(lines[j]), "```") {
				i = j
				closed = true
				break
			}
			content = append(content, lines[j])
		}
		if !closed {
			// Unterminated fence: take the remainder as the block body.
			content = lines[i+1:]
			i = len(lines)
		}
		blocks = append(blocks, fencedBlock{tag: tag, content: strings.Join(content, "\n")})
	}
	return blocks
}

// scanKeywordRun finds the first keyword-leading line outside fences and takes
// the contiguous run of lines until a blank line, a prose marker, or the end
// of the statement.
func scanKeywordRun(raw string) string {
	lines := strings.Split(raw, "\n")
	fenced := fencedLines(lines)
	for i, line := range lines {
		if fenced[i] || !startsWithSQLKeyword(strings.TrimSpace(line)) {
			continue
		}
		var statement []string
		for j := i; j < len(lines); j++ {
			current := strings.TrimSpace(lines[j])
			if fenced[j] {
				break
			}
			if current == "" && j > i {
				break
			}
			if j > i && isProseLine(current) {
				break
			}
			statement = append(statement, lines[j])
			if strings.Contains(current, ";") {
				break
			}
		}
		return strings.Join(statement, "\n")
	}
	return ""
}

// fencedLines marks fence delimiter lines and their interiors. Fenced content
// is handled by the block passes; the keyword scan only covers bare text, so a
// statement inside a python or json block is never picked up here.
func fencedLines(lines []string) []bool {
	marks := make([]bool, len(lines))
	inFence := false
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			marks[i] = true
			inFence = !inFence
			continue
		}
		marks[i] = inFence
	}
	return marks
}

func startsWithSQLKeyword(text string) bool {
	upper := strings.ToUpper(strings.TrimSpace(text))
	for _, keyword := range sqlKeywords {
		if strings.HasPrefix(upper, keyword+" ") || upper == keyword {
			return true
		}
	}
	return false
}

func isProseLine(line string) bool {
	lower := strings.ToLower(line)
	for _, marker := range proseMarkers {
		if strings.HasPrefix(lower, marker) {
			return true
		}
	}
	return false
}

var (
	fenceRe        = regexp.MustCompile("```(?:sql)?|```")
	wrappingQuotes = regexp.MustCompile(`^["'](.*)["']$`)
	sqlPrefixRe    = regexp.MustCompile(`(?i)^sql\s+`)
)

// CleanSQL normalizes a SQL candidate: markdown fences, wrapping quotes, a
// leading "sql" tag, smart quotes, and non-ASCII bytes are removed. The
// result is trimmed but keeps any trailing semicolon for display.
func CleanSQL(raw string) string {
	cleaned := fenceRe.ReplaceAllString(raw, "")
	cleaned = strings.TrimSpace(cleaned)
	cleaned = wrappingQuotes.ReplaceAllString(cleaned, "$1")
	cleaned = sqlPrefixRe.ReplaceAllString(cleaned, "")

	replacer := strings.NewReplacer(
		"“", `"`, "”", `"`,
		"‘", "'", "’", "'",
	)
	cleaned = replacer.Replace(cleaned)

	var builder strings.Builder
	for _, r := range cleaned {
		if r < 128 {
			builder.WriteRune(r)
		}
	}
	return strings.TrimSpace(builder.String())
}

// StripTrailingSemicolon removes a single trailing semicolon for downstream
// processing. The display form may keep it.
func StripTrailingSemicolon(sqlText string) string {
	trimmed := strings.TrimSpace(sqlText)
	trimmed = strings.TrimSuffix(trimmed, ";")
	return strings.TrimSpace(trimmed)
}
