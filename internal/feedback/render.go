// Package feedback renders the lightweight markup teachers use in grading
// feedback: blank lines separate paragraphs, lines starting with "- " or "* "
// are bullet items and **text** is bold.
package feedback

import (
	"html"
	"regexp"
	"strings"
)

var boldPattern = regexp.MustCompile(`\*\*([^*]+)\*\*`)

type blockKind int

const (
	paragraph blockKind = iota
	list
)

type block struct {
	kind  blockKind
	lines []string
}

func parse(text string) []block {
	var blocks []block
	var cur *block

	flush := func() {
		if cur != nil && len(cur.lines) > 0 {
			blocks = append(blocks, *cur)
		}
		cur = nil
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			flush()
			continue
		}

		kind := paragraph
		if item, ok := bulletItem(line); ok {
			kind = list
			line = item
		}
		if cur == nil || cur.kind != kind {
			flush()
			cur = &block{kind: kind}
		}
		cur.lines = append(cur.lines, line)
	}
	flush()
	return blocks
}

func bulletItem(line string) (string, bool) {
	for _, marker := range []string{"- ", "* "} {
		if strings.HasPrefix(line, marker) {
			return strings.TrimSpace(line[len(marker):]), true
		}
	}
	return "", false
}

// HTML renders feedback text as escaped HTML.
func HTML(text string) string {
	var b strings.Builder
	for _, blk := range parse(text) {
		switch blk.kind {
		case list:
			b.WriteString("<ul>")
			for _, line := range blk.lines {
				b.WriteString("<li>" + inline(line) + "</li>")
			}
			b.WriteString("</ul>")
		default:
			parts := make([]string, len(blk.lines))
			for i, line := range blk.lines {
				parts[i] = inline(line)
			}
			b.WriteString("<p>" + strings.Join(parts, "<br>") + "</p>")
		}
	}
	return b.String()
}

// Plain renders feedback text for a text/plain mail part.
func Plain(text string) string {
	var out []string
	for _, blk := range parse(text) {
		lines := make([]string, len(blk.lines))
		for i, line := range blk.lines {
			line = boldPattern.ReplaceAllString(line, "$1")
			if blk.kind == list {
				line = "  • " + line
			}
			lines[i] = line
		}
		out = append(out, strings.Join(lines, "\n"))
	}
	return strings.Join(out, "\n\n")
}

func inline(line string) string {
	return boldPattern.ReplaceAllString(html.EscapeString(line), "<strong>$1</strong>")
}
