package query

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokIdent  tokenKind = iota // field name or keyword
	tokOp                      // ==, !=, >=, <=, >, <
	tokString                  // "…" or '…'
	tokNumber                  // 42 | 3.14
	tokLParen
	tokRParen
	tokEOF
)

type token struct {
	kind tokenKind
	val  string
	pos  int
}

func lex(src string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(src) {
		ch := src[i]
		switch {
		case unicode.IsSpace(rune(ch)):
			i++
		case ch == '(':
			tokens = append(tokens, token{tokLParen, "(", i})
			i++
		case ch == ')':
			tokens = append(tokens, token{tokRParen, ")", i})
			i++
		case ch == '=' || ch == '!' || ch == '<' || ch == '>':
			if i+1 < len(src) && src[i+1] == '=' {
				tokens = append(tokens, token{tokOp, src[i : i+2], i})
				i += 2
				continue
			}
			if ch == '=' || ch == '!' {
				return nil, fmt.Errorf("query: unexpected %q at position %d", ch, i)
			}
			tokens = append(tokens, token{tokOp, string(ch), i})
			i++
		case ch == '"' || ch == '\'':
			s, next, err := lexString(src, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{tokString, s, i})
			i = next
		case isDigit(ch) || (ch == '-' && i+1 < len(src) && isDigit(src[i+1])):
			j := i + 1
			for j < len(src) && (isDigit(src[j]) || src[j] == '.') {
				j++
			}
			tokens = append(tokens, token{tokNumber, src[i:j], i})
			i = j
		case unicode.IsLetter(rune(ch)) || ch == '_':
			j := i + 1
			for j < len(src) && (unicode.IsLetter(rune(src[j])) || isDigit(src[j]) || src[j] == '_') {
				j++
			}
			tokens = append(tokens, token{tokIdent, src[i:j], i})
			i = j
		default:
			return nil, fmt.Errorf("query: unexpected character %q at position %d", ch, i)
		}
	}
	return append(tokens, token{tokEOF, "", len(src)}), nil
}

func lexString(src string, start int) (string, int, error) {
	quote := src[start]
	var b strings.Builder
	for j := start + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			// Only quotes and backslashes are unescaped; regex escapes pass through.
			if j+1 < len(src) && (src[j+1] == quote || src[j+1] == '\\') {
				j++
			}
			b.WriteByte(src[j])
		case quote:
			return b.String(), j + 1, nil
		default:
			b.WriteByte(src[j])
		}
	}
	return "", 0, fmt.Errorf("query: unterminated string starting at position %d", start)
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}
