// Package diff renders unified diffs between the observed content of a
// managed file and the content an item declares. The minus side is always
// the current state, the plus side the desired state, so the diff reads as
// "what apply would change".
package diff

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"
)

const (
	maxDiffLines    = 10000
	truncateMessage = "... (diff truncated, exceeds 10,000 lines) ..."
)

// Unified compares current and desired content and returns a unified diff.
// Returns empty string if content is identical. Diffs exceeding 10,000 lines
// are cut off with a truncation marker.
func Unified(current, desired []byte, currentLabel, desiredLabel string) string {
	if bytes.Equal(current, desired) {
		return ""
	}

	dmp := diffmatchpatch.New()

	currentStr := string(current)
	desiredStr := string(desired)

	diffs := dmp.DiffMain(currentStr, desiredStr, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var buf bytes.Buffer

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(&buf, "--- %s\t%s\n", currentLabel, timestamp)
	fmt.Fprintf(&buf, "+++ %s\t%s\n", desiredLabel, timestamp)

	currentLines := strings.Split(currentStr, "\n")
	desiredLines := strings.Split(desiredStr, "\n")

	fmt.Fprintf(&buf, "@@ -1,%d +1,%d @@\n", len(currentLines), len(desiredLines))

	for _, d := range diffs {
		text := d.Text
		lines := strings.Split(text, "\n")

		// Remove empty trailing line from split
		if len(lines) > 0 && lines[len(lines)-1] == "" && text[len(text)-1] == '\n' {
			lines = lines[:len(lines)-1]
		}

		var prefix string
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			prefix = " "
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		}

		for _, line := range lines {
			buf.WriteString(prefix)
			buf.WriteString(line)
			buf.WriteString("\n")
		}
	}

	result := buf.String()
	lines := strings.Split(result, "\n")
	if len(lines) > maxDiffLines {
		truncated := strings.Join(lines[:maxDiffLines], "\n")
		return truncated + "\n" + truncateMessage + "\n"
	}

	return result
}

// Stats counts added and removed lines in a unified diff produced by
// Unified. Header and hunk lines are not counted.
func Stats(unified string) (added, removed int) {
	for _, line := range strings.Split(unified, "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"), strings.HasPrefix(line, "@@"):
		case strings.HasPrefix(line, "+"):
			added++
		case strings.HasPrefix(line, "-"):
			removed++
		}
	}
	return added, removed
}
