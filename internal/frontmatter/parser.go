// Package frontmatter parses the restricted YAML-like header at the top of
// memory files.
//
// The parser is line oriented. It understands scalar values, inline arrays
// (keywords: [a, b]), arrays split across lines and dash lists; anything
// richer is read as text or ignored. Parsing never fails: input without a
// complete header comes back unchanged as the body.
package frontmatter

import "strings"

// Delimiter opens and closes the header block.
const Delimiter = "---"

// Document is the result of parsing a memory file.
type Document struct {
	// Header is nil when the text has no header or the header is unterminated.
	Header *Header
	Body   string
}

// HasHeader reports whether a header block was found.
func (d Document) HasHeader() bool {
	return d.Header != nil
}

// Parse splits text into its header and body.
func Parse(text string) Document {
	if !strings.HasPrefix(text, Delimiter) {
		return Document{Body: text}
	}

	lines := strings.Split(text, "\n")
	if len(lines) < 3 {
		return Document{Body: text}
	}

	closing := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == Delimiter {
			closing = i
			break
		}
	}
	if closing == -1 {
		return Document{Body: text}
	}

	p := newParser()
	for _, line := range lines[1:closing] {
		p.feed(line)
	}

	return Document{
		Header: p.finish(),
		Body:   strings.Join(lines[closing+1:], "\n"),
	}
}

type parseState int

const (
	// stateNoKey: no key is accepting items.
	stateNoKey parseState = iota
	// stateScalarPending: a key had an empty value; dash items turn it into a list.
	stateScalarPending
	// stateListOpen: items are accumulating for key.
	stateListOpen
)

type lineKind int

const (
	lineBlank lineKind = iota
	lineKey
	lineDash
	lineContinuation
	lineClose
)

type parser struct {
	header *Header
	state  parseState
	key    string
	items  []string
}

func newParser() *parser {
	return &parser{header: NewHeader()}
}

// classify mirrors the precedence of the line rules: key lines win over
// everything, dash items over continuations, continuations over a closing
// bracket.
func (p *parser) classify(trimmed string) lineKind {
	switch {
	case strings.Contains(trimmed, ":") && !strings.HasPrefix(trimmed, "-"):
		return lineKey
	case strings.HasPrefix(trimmed, "-"):
		return lineDash
	case p.state == stateListOpen && trimmed != "" && trimmed != "]":
		return lineContinuation
	case trimmed == "]" || strings.HasSuffix(trimmed, "]"):
		return lineClose
	default:
		return lineBlank
	}
}

func (p *parser) feed(line string) {
	trimmed := strings.TrimSpace(line)

	switch p.classify(trimmed) {
	case lineKey:
		p.commit()
		key, value, _ := strings.Cut(trimmed, ":")
		p.startKey(strings.TrimSpace(key), strings.TrimSpace(value))

	case lineDash:
		item := cleanItem(strings.TrimPrefix(trimmed, "-"))
		switch p.state {
		case stateScalarPending:
			p.state = stateListOpen
			p.items = []string{}
		case stateNoKey:
			return
		}
		if item != "" {
			p.items = append(p.items, item)
		}

	case lineContinuation:
		rest, closed := strings.CutSuffix(trimmed, "]")
		p.items = append(p.items, splitItems(rest)...)
		if closed {
			p.commit()
		}

	case lineClose:
		p.commit()
	}
}

func (p *parser) startKey(key, value string) {
	p.key = key

	if rest, ok := strings.CutPrefix(value, "["); ok {
		rest = strings.TrimSpace(rest)
		rest, closed := strings.CutSuffix(rest, "]")
		p.state = stateListOpen
		p.items = splitItems(rest)
		if closed {
			p.commit()
		}
		return
	}

	p.header.Set(key, Scalar(strings.TrimSpace(unquote(value))))
	if value == "" {
		p.state = stateScalarPending
		return
	}
	p.state = stateNoKey
}

// commit stores an open list under its key and resets to stateNoKey.
func (p *parser) commit() {
	if p.state == stateListOpen {
		p.header.Set(p.key, List(p.items...))
	}
	p.state = stateNoKey
	p.key = ""
	p.items = nil
}

func (p *parser) finish() *Header {
	p.commit()
	return p.header
}

// splitItems splits a comma separated array fragment, dropping empty
// fragments and stray closing brackets.
func splitItems(s string) []string {
	items := []string{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" || part == "]" {
			continue
		}
		if item := cleanItem(part); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// cleanItem trims whitespace, one trailing comma and one layer of quotes.
func cleanItem(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimSuffix(s, ","))
	return strings.TrimSpace(unquote(s))
}

// unquote removes one matching pair of single or double quotes.
func unquote(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '"' || first == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
