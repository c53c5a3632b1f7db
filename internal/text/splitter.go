package text

import (
	"regexp"
	"strings"
)

// DefaultMaxTokens is sized for common embedding models. Token counts are
// estimated at roughly 4 characters per token.
const DefaultMaxTokens = 512

const charsPerToken = 4

// Splitter slices a source text into ordered, non-empty pieces that each fit
// within a token budget. Splitting is structure-aware for markdown: fenced
// code blocks are kept intact where possible, prose is split by headers,
// then paragraphs, then lines, then words. The same input and configuration
// always produce the same output.
type Splitter struct {
	MaxTokens int
}

// NewSplitter returns a Splitter with the given token budget. A non-positive
// budget falls back to DefaultMaxTokens.
func NewSplitter(maxTokens int) *Splitter {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &Splitter{MaxTokens: maxTokens}
}

var fenceRe = regexp.MustCompile("(?s)```([a-zA-Z0-9_]+)?[[:space:]]*\\n(.*?)\\n[[:space:]]*```")

// Split returns the ordered chunks of text. A text that fits the budget
// comes back as a single chunk equal to the trimmed input. Chunks are never
// empty and never reordered.
func (s *Splitter) Split(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	maxChars := s.MaxTokens * charsPerToken
	if len(trimmed) <= maxChars {
		return []string{trimmed}
	}

	var chunks []string

	lastIndex := 0
	for _, match := range fenceRe.FindAllStringSubmatchIndex(trimmed, -1) {
		if match[0] > lastIndex {
			chunks = append(chunks, splitProse(trimmed[lastIndex:match[0]], maxChars)...)
		}

		lang := ""
		if match[2] != -1 {
			lang = trimmed[match[2]:match[3]]
		}
		body := trimmed[match[4]:match[5]]

		if len(body) > maxChars {
			chunks = append(chunks, splitCode(body, lang, maxChars)...)
		} else {
			chunks = append(chunks, "```"+lang+"\n"+body+"\n```")
		}

		lastIndex = match[1]
	}

	if lastIndex < len(trimmed) {
		chunks = append(chunks, splitProse(trimmed[lastIndex:], maxChars)...)
	}

	return chunks
}

var headerRe = regexp.MustCompile(`(?m)^#{1,6}\s`)

// splitProse splits prose respecting structure: headers, then paragraphs,
// then lines, then words.
func splitProse(text string, maxChars int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var sections []string
	lastIdx := 0
	for _, loc := range headerRe.FindAllStringIndex(text, -1) {
		if loc[0] > lastIdx {
			sections = append(sections, text[lastIdx:loc[0]])
		}
		lastIdx = loc[0]
	}
	if lastIdx < len(text) {
		sections = append(sections, text[lastIdx:])
	}

	var chunks []string
	for _, section := range sections {
		section = strings.TrimSpace(section)
		if section == "" {
			continue
		}
		if len(section) <= maxChars {
			chunks = append(chunks, section)
			continue
		}
		chunks = append(chunks, packParagraphs(section, maxChars)...)
	}
	return chunks
}

func packParagraphs(section string, maxChars int) []string {
	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}

	for _, para := range strings.Split(section, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if current.Len()+len(para)+2 <= maxChars {
			if current.Len() > 0 {
				current.WriteString("\n\n")
			}
			current.WriteString(para)
			continue
		}

		flush()

		if len(para) <= maxChars {
			current.WriteString(para)
			continue
		}

		for _, line := range strings.Split(para, "\n") {
			if current.Len()+len(line)+1 <= maxChars {
				if current.Len() > 0 {
					current.WriteString("\n")
				}
				current.WriteString(line)
				continue
			}

			flush()

			if len(line) <= maxChars {
				current.WriteString(line)
				continue
			}

			for _, word := range strings.Fields(line) {
				if current.Len()+len(word)+1 <= maxChars {
					if current.Len() > 0 {
						current.WriteString(" ")
					}
					current.WriteString(word)
				} else {
					flush()
					current.WriteString(word)
				}
			}
		}
	}

	flush()
	return chunks
}

// splitCode splits an oversized fenced code block by line, re-fencing each
// piece so the chunk stays readable on its own.
func splitCode(body, lang string, maxChars int) []string {
	var chunks []string
	var current strings.Builder
	currentLen := 0

	emit := func() {
		chunks = append(chunks, "```"+lang+"\n"+strings.TrimRight(current.String(), "\n")+"\n```")
		current.Reset()
		currentLen = 0
	}

	for _, line := range strings.Split(body, "\n") {
		lineLen := len(line) + 1
		if currentLen+lineLen > maxChars && currentLen > 0 {
			emit()
		}
		current.WriteString(line)
		current.WriteString("\n")
		currentLen += lineLen
	}
	if currentLen > 0 {
		emit()
	}
	return chunks
}
