// Package script splits multi-statement SQL files into named blocks.
//
// A block opens with a line starting with --[name] and runs until the next
// opening marker. --[end] closes the current block explicitly; without it the
// last block extends to the end of the file:
//
//	--[daily_users]
//	SELECT count(*) FROM users WHERE dt = '${dt}'
//	--[daily_orders]
//	SELECT count(*) FROM orders WHERE dt = '${dt}'
//	--[end]
//
// Every "${" in the source is rewritten to "{" before blocks are extracted,
// so ${dt} and {dt} are the same placeholder.
package script

import (
	"regexp"
	"strings"
)

// EndMarker is the block name reserved for the explicit terminator
const EndMarker = "end"

// The marker line may carry trailing text; it belongs to the marker, not the body.
var markerRegex = regexp.MustCompile(`(?m)^--\[([^\]\r\n]*)\][^\n]*$`)

// Block is one named unit of SQL text
type Block struct {
	Name string
	SQL  string
}

// Script holds the blocks of one parsed file in discovery order
type Script struct {
	blocks     []Block
	index      map[string]int
	unresolved []string
}

// Parse extracts the blocks of text, substituting ctx into each body when ctx is non-empty.
// Unterminated or empty-named markers are not markers; blocks whose body ends up blank are dropped.
func Parse(text string, ctx Context) *Script {
	text = Escape(text)

	s := &Script{index: make(map[string]int)}
	seen := make(map[string]struct{})

	markers := findMarkers(text)
	for i, m := range markers {
		if m.name == EndMarker {
			continue
		}

		bodyStart := m.end
		if bodyStart < len(text) && text[bodyStart] == '\n' {
			bodyStart++
		}

		bodyEnd := len(text)
		if i+1 < len(markers) {
			bodyEnd = markers[i+1].start
		}
		if bodyStart > bodyEnd {
			bodyStart = bodyEnd
		}

		body := trimLineEnd(text[bodyStart:bodyEnd])

		if len(ctx) > 0 {
			var missing []string
			body, missing = Substitute(body, ctx)
			for _, key := range missing {
				if _, ok := seen[key]; !ok {
					seen[key] = struct{}{}
					s.unresolved = append(s.unresolved, key)
				}
			}
		}

		if strings.TrimSpace(body) == "" {
			continue
		}

		s.add(m.name, body)
	}

	return s
}

type marker struct {
	name       string
	start, end int
}

// findMarkers returns the marker lines of text; a blank name does not make a marker
func findMarkers(text string) []marker {
	var markers []marker
	for _, m := range markerRegex.FindAllStringSubmatchIndex(text, -1) {
		name := strings.TrimSpace(text[m[2]:m[3]])
		if name == "" {
			continue
		}
		markers = append(markers, marker{name: name, start: m[0], end: m[1]})
	}
	return markers
}

// add keeps the first position of a name and the last body seen for it
func (s *Script) add(name, sql string) {
	if idx, ok := s.index[name]; ok {
		s.blocks[idx].SQL = sql
		return
	}
	s.index[name] = len(s.blocks)
	s.blocks = append(s.blocks, Block{Name: name, SQL: sql})
}

// Single wraps one statement as a script with a single block.
// The block is kept even when sql is blank.
func Single(name, sql string, ctx Context) *Script {
	s := &Script{index: make(map[string]int)}
	if len(ctx) > 0 {
		sql, s.unresolved = Substitute(Escape(sql), ctx)
	}
	s.add(name, sql)
	return s
}

// Blocks returns the blocks in discovery order
func (s *Script) Blocks() []Block {
	out := make([]Block, len(s.blocks))
	copy(out, s.blocks)
	return out
}

// Names returns the block names in discovery order
func (s *Script) Names() []string {
	names := make([]string, len(s.blocks))
	for i, b := range s.blocks {
		names[i] = b.Name
	}
	return names
}

// Get returns the SQL of the named block
func (s *Script) Get(name string) (string, bool) {
	idx, ok := s.index[name]
	if !ok {
		return "", false
	}
	return s.blocks[idx].SQL, true
}

// Map returns the blocks as name to SQL
func (s *Script) Map() map[string]string {
	m := make(map[string]string, len(s.blocks))
	for _, b := range s.blocks {
		m[b.Name] = b.SQL
	}
	return m
}

// Len returns the number of blocks
func (s *Script) Len() int {
	return len(s.blocks)
}

// Unresolved lists placeholders that had no value in the context, in first-seen order
func (s *Script) Unresolved() []string {
	return append([]string(nil), s.unresolved...)
}

// trimLineEnd drops the terminator of the last body line
func trimLineEnd(body string) string {
	body = strings.TrimSuffix(body, "\n")
	return strings.TrimSuffix(body, "\r")
}
