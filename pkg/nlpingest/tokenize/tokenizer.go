package tokenize

import "unicode"

// Token is a token together with its byte offsets in the source text.
type Token struct {
	Text  string
	Start int // offset of the first byte
	End   int // offset one past the last byte
}

type charClass int

const (
	classNone charClass = iota
	classLetter
	classDigit
	classSpace
	classOther
)

func classify(r rune) charClass {
	switch {
	case unicode.IsLetter(r):
		return classLetter
	case unicode.IsDigit(r):
		return classDigit
	case unicode.IsSpace(r):
		return classSpace
	default:
		return classOther
	}
}

// Spans splits text into tokens at every character class change.
// Whitespace is dropped. Punctuation and symbols form single-rune tokens,
// except runs of the same rune ("...", "--") which stay together.
// Surface form is kept as is: no case folding, no stemming.
func Spans(text string) []Token {
	var tokens []Token
	start := -1
	state := classNone
	var prev rune

	for i, r := range text {
		class := classify(r)
		boundary := class != state || (class == classOther && r != prev)
		if boundary {
			if start >= 0 && state != classSpace {
				tokens = append(tokens, Token{Text: text[start:i], Start: start, End: i})
			}
			start = i
			state = class
		}
		prev = r
	}

	// Don't forget the last token
	if start >= 0 && state != classSpace {
		tokens = append(tokens, Token{Text: text[start:], Start: start, End: len(text)})
	}

	return tokens
}

// Tokenize returns only the token strings of Spans.
func Tokenize(text string) []string {
	return Texts(Spans(text))
}

// Texts extracts the token strings from spans.
func Texts(spans []Token) []string {
	out := make([]string, len(spans))
	for i, s := range spans {
		out[i] = s.Text
	}
	return out
}

// Covered returns the source substring from token first to token last, inclusive.
func Covered(text string, spans []Token, first, last int) string {
	if first < 0 || last >= len(spans) || first > last {
		return ""
	}
	return text[spans[first].Start:spans[last].End]
}

// IsPunct reports whether tok consists of punctuation or symbol runes only.
func IsPunct(tok string) bool {
	if tok == "" {
		return false
	}
	for _, r := range tok {
		if classify(r) != classOther {
			return false
		}
	}
	return true
}
