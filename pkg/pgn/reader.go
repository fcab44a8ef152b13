// Copyright © 2025 Rak Laptudirm <rak@laptudirm.com>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pgn

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"laptudirm.com/x/scholar/pkg/game"
)

var ErrMalformed = errors.New("pgn: malformed game")

type tokenKind uint8

const (
	tokenTag tokenKind = iota
	tokenMove
	tokenComment
	tokenNAG
	tokenOpen
	tokenClose
	tokenResult
)

type token struct {
	kind tokenKind

	text        string // move SAN, comment text or result
	name, value string // tag name and value
	nag         int
}

// suffixNAGs maps the inline suffix annotations to their numeric glyphs.
var suffixNAGs = map[string]int{
	"!": 1, "?": 2, "!!": 3, "??": 4, "!?": 5, "?!": 6,
}

var tagRegexp = regexp.MustCompile(`^\[(\w+)\s+"((?:[^"\\]|\\.)*)"\]`)

// Decode parses one game's PGN text into a move tree, resolving each SAN
// move through the oracle to obtain its UCI identity. A move the oracle
// rejects makes the whole game malformed.
func Decode(text string, oracle game.Oracle) (*game.Game, error) {
	tokens, err := lex(text)
	if err != nil {
		return nil, err
	}

	g := game.New()
	pos := 0

	for pos < len(tokens) && tokens[pos].kind == tokenTag {
		g.Tags = append(g.Tags, game.Tag{Name: tokens[pos].name, Value: tokens[pos].value})
		pos++
	}

	if fen := g.Tag("FEN"); fen != "" {
		g.Tree.SetupFEN = fen
	}

	parser := &parser{tokens: tokens, pos: pos, oracle: oracle, game: g}
	if err := parser.variation(g.Tree.Root, nil); err != nil {
		return nil, err
	}

	return g, nil
}

// Split cuts a multi-game PGN text into per-game chunks. A tag line opens a
// new game once any movetext has been seen, so a malformed game only costs
// itself, not the rest of the file.
func Split(text string) []string {
	var games []string
	var current []string
	inMovetext := false

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)

		if tagRegexp.MatchString(trimmed) {
			if inMovetext && len(current) > 0 {
				games = append(games, strings.Join(current, "\n"))
				current = nil
				inMovetext = false
			}
		} else if trimmed != "" {
			inMovetext = true
		}

		current = append(current, line)
	}

	if chunk := strings.Join(current, "\n"); strings.TrimSpace(chunk) != "" {
		games = append(games, chunk)
	}

	return games
}

type parser struct {
	tokens []token
	pos    int

	oracle game.Oracle
	game   *game.Game
}

// variation parses moves into children of parent, which sits at the end of
// path. A "(" recurses as an alternative to the previously parsed move; a
// ")" or the end of input returns.
func (p *parser) variation(parent *game.Node, path []string) error {
	current, currentPath := parent, path

	// The anchor is the node the next "(" is a variation of: the parent
	// of the most recently parsed move.
	var anchor *game.Node
	var anchorPath []string

	for p.pos < len(p.tokens) {
		tok := p.tokens[p.pos]
		p.pos++

		switch tok.kind {
		case tokenMove:
			uci, san, err := p.oracle.Resolve(p.game.Tree.SetupFEN, currentPath, tok.text)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrMalformed, err)
			}

			node := &game.Node{Move: uci, SAN: san}
			current.Children = append(current.Children, node)

			anchor, anchorPath = current, currentPath
			current = node
			currentPath = append(append([]string(nil), currentPath...), uci)

		case tokenComment:
			if current.Comment == "" {
				current.Comment = tok.text
			} else {
				current.Comment += " " + tok.text
			}

		case tokenNAG:
			if current.NAG == 0 {
				current.NAG = tok.nag
			}

		case tokenOpen:
			if anchor == nil {
				return fmt.Errorf("%w: variation before any move", ErrMalformed)
			}

			if err := p.variation(anchor, anchorPath); err != nil {
				return err
			}

		case tokenClose:
			return nil

		case tokenResult:
			if p.game.Tag("Result") == "" {
				p.game.SetTag("Result", tok.text)
			}

		case tokenTag:
			return fmt.Errorf("%w: tag inside movetext", ErrMalformed)
		}
	}

	return nil
}

// lex tokenizes one game's PGN text.
func lex(text string) ([]token, error) {
	var tokens []token

	for i := 0; i < len(text); {
		switch c := text[i]; {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++

		case c == '[':
			rest := text[i:]
			match := tagRegexp.FindStringSubmatch(rest)
			if match == nil {
				return nil, fmt.Errorf("%w: bad tag at %q", ErrMalformed, head(rest))
			}

			value := strings.ReplaceAll(match[2], `\"`, `"`)
			tokens = append(tokens, token{kind: tokenTag, name: match[1], value: value})
			i += len(match[0])

		case c == '{':
			end := strings.IndexByte(text[i:], '}')
			if end < 0 {
				return nil, fmt.Errorf("%w: unterminated comment", ErrMalformed)
			}

			comment := strings.TrimSpace(text[i+1 : i+end])
			tokens = append(tokens, token{kind: tokenComment, text: comment})
			i += end + 1

		case c == ';':
			end := strings.IndexByte(text[i:], '\n')
			if end < 0 {
				end = len(text) - i
			}

			comment := strings.TrimSpace(text[i+1 : i+end])
			tokens = append(tokens, token{kind: tokenComment, text: comment})
			i += end

		case c == '(':
			tokens = append(tokens, token{kind: tokenOpen})
			i++

		case c == ')':
			tokens = append(tokens, token{kind: tokenClose})
			i++

		case c == '$':
			j := i + 1
			for j < len(text) && text[j] >= '0' && text[j] <= '9' {
				j++
			}

			nag, err := strconv.Atoi(text[i+1 : j])
			if err != nil {
				return nil, fmt.Errorf("%w: bad annotation glyph", ErrMalformed)
			}

			tokens = append(tokens, token{kind: tokenNAG, nag: nag})
			i = j

		default:
			j := i
			for j < len(text) && !strings.ContainsRune(" \t\n\r(){}[];", rune(text[j])) {
				j++
			}

			tokens = append(tokens, wordTokens(text[i:j])...)
			i = j
		}
	}

	return tokens, nil
}

// wordTokens classifies a bare movetext word: a result, a move number
// (dropped), or a move with optional suffix annotation.
func wordTokens(word string) []token {
	switch word {
	case "1-0", "0-1", "1/2-1/2", "*":
		return []token{{kind: tokenResult, text: word}}
	}

	// Move numbers: digits followed by dots, possibly glued to the move
	// itself ("12.Nf3").
	digits := 0
	for digits < len(word) && word[digits] >= '0' && word[digits] <= '9' {
		digits++
	}
	if digits > 0 {
		dots := digits
		for dots < len(word) && word[dots] == '.' {
			dots++
		}

		if dots == len(word) {
			return nil
		}

		if dots > digits {
			return wordTokens(word[dots:])
		}
	}

	// Split a trailing "!", "?", "!!", "??", "!?" or "?!" into a glyph.
	move := strings.TrimRight(word, "!?")
	if move == "" {
		return nil
	}

	if suffix := word[len(move):]; suffix != "" {
		if nag, ok := suffixNAGs[suffix]; ok {
			return []token{{kind: tokenMove, text: move}, {kind: tokenNAG, nag: nag}}
		}
	}

	return []token{{kind: tokenMove, text: move}}
}

func head(s string) string {
	if len(s) > 20 {
		return s[:20]
	}
	return s
}
