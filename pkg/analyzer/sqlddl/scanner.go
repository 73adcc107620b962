package sqlddl

import (
	"strings"
	"unicode"
)

// TokenType represents the type of token
type TokenType string

const (
	TokenIdentifier  TokenType = "IDENTIFIER"
	TokenNumber      TokenType = "NUMBER"
	TokenString      TokenType = "STRING"
	TokenPunctuation TokenType = "PUNCTUATION"
	TokenEOF         TokenType = "EOF"
)

// Token represents a lexical token
type Token struct {
	Type TokenType
	Text string
	Pos  int
}

// Scanner is a lexical scanner for SQL DDL statements
type Scanner struct {
	src    []rune
	offset int
}

// NewScanner creates a new Scanner over the given DDL text
func NewScanner(src string) *Scanner {
	return &Scanner{src: []rune(src)}
}

// Next returns the next token, skipping whitespace and comments
func (s *Scanner) Next() Token {
	s.skipSpaceAndComments()
	if s.offset >= len(s.src) {
		return Token{Type: TokenEOF, Pos: s.offset}
	}

	start := s.offset
	ch := s.src[s.offset]

	switch {
	case isIdentStart(ch):
		for s.offset < len(s.src) && isIdentPart(s.src[s.offset]) {
			s.offset++
		}
		return Token{Type: TokenIdentifier, Text: string(s.src[start:s.offset]), Pos: start}

	case unicode.IsDigit(ch):
		for s.offset < len(s.src) && (unicode.IsDigit(s.src[s.offset]) || s.src[s.offset] == '.') {
			s.offset++
		}
		return Token{Type: TokenNumber, Text: string(s.src[start:s.offset]), Pos: start}

	case ch == '\'':
		s.offset++
		for s.offset < len(s.src) && s.src[s.offset] != '\'' {
			s.offset++
		}
		if s.offset < len(s.src) {
			s.offset++ // closing quote
		}
		return Token{Type: TokenString, Text: string(s.src[start:s.offset]), Pos: start}

	case ch == '"':
		// Quoted identifier
		s.offset++
		for s.offset < len(s.src) && s.src[s.offset] != '"' {
			s.offset++
		}
		text := string(s.src[start+1 : s.offset])
		if s.offset < len(s.src) {
			s.offset++
		}
		return Token{Type: TokenIdentifier, Text: text, Pos: start}

	default:
		s.offset++
		return Token{Type: TokenPunctuation, Text: string(ch), Pos: start}
	}
}

// Peek returns the next token without consuming it
func (s *Scanner) Peek() Token {
	saved := s.offset
	tok := s.Next()
	s.offset = saved
	return tok
}

func (s *Scanner) skipSpaceAndComments() {
	for s.offset < len(s.src) {
		ch := s.src[s.offset]
		switch {
		case unicode.IsSpace(ch):
			s.offset++
		case ch == '-' && s.offset+1 < len(s.src) && s.src[s.offset+1] == '-':
			for s.offset < len(s.src) && s.src[s.offset] != '\n' {
				s.offset++
			}
		case ch == '/' && s.offset+1 < len(s.src) && s.src[s.offset+1] == '*':
			s.offset += 2
			for s.offset+1 < len(s.src) && !(s.src[s.offset] == '*' && s.src[s.offset+1] == '/') {
				s.offset++
			}
			if s.offset+1 < len(s.src) {
				s.offset += 2
			} else {
				s.offset = len(s.src)
			}
		default:
			return
		}
	}
}

func isIdentStart(ch rune) bool {
	return unicode.IsLetter(ch) || ch == '_'
}

func isIdentPart(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_'
}

// keywordIs reports whether a token is the given keyword, case-insensitively
func keywordIs(tok Token, keyword string) bool {
	return tok.Type == TokenIdentifier && strings.EqualFold(tok.Text, keyword)
}
