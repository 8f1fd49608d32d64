package model

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cognicore/nlpingest/pkg/nlpingest/tokenize"
)

const (
	boundaryBefore = "BOS"
	boundaryAfter  = "EOS"
	suffixLen      = 3
)

// contextFeatures appends the features of token i to buf and returns it.
// prev holds the outcomes already decided for tokens 0..i-1 of the current
// sequence. adaptive, when non-nil, maps a token string to the last outcome
// the session assigned to it earlier in the same document.
func contextFeatures(buf []string, tokens []string, i int, prev []string, adaptive map[string]string) []string {
	tok := tokens[i]
	lower := strings.ToLower(tok)

	buf = append(buf,
		"bias",
		"w="+tok,
		"lw="+lower,
		"sh="+shape(tok),
	)

	if utf8.RuneCountInString(lower) > suffixLen {
		r := []rune(lower)
		buf = append(buf, "suf="+string(r[len(r)-suffixLen:]))
	}

	if i > 0 {
		buf = append(buf, "pw="+strings.ToLower(tokens[i-1]))
	} else {
		buf = append(buf, "pw="+boundaryBefore)
	}
	if i+1 < len(tokens) {
		buf = append(buf, "nw="+strings.ToLower(tokens[i+1]))
	} else {
		buf = append(buf, "nw="+boundaryAfter)
	}

	if i > 0 {
		buf = append(buf, "po="+prev[i-1])
	} else {
		buf = append(buf, "po="+boundaryBefore)
	}

	if adaptive != nil {
		if d, ok := adaptive[tok]; ok {
			buf = append(buf, "pd="+d)
		}
	}

	return buf
}

// shape classifies the orthography of a token.
//
//	punct  only punctuation or symbols
//	num    only digits
//	ic     initial capital, rest lowercase
//	ac     all capitals
//	lc     all lowercase
//	mixed  anything else
func shape(tok string) string {
	if tokenize.IsPunct(tok) {
		return "punct"
	}

	allDigits, allUpper, allLower := true, true, true
	first := true
	restLower := true
	for _, r := range tok {
		if !unicode.IsDigit(r) {
			allDigits = false
		}
		if !unicode.IsUpper(r) {
			allUpper = false
		}
		if !unicode.IsLower(r) {
			allLower = false
			if !first {
				restLower = false
			}
		}
		first = false
	}

	r, _ := utf8.DecodeRuneInString(tok)
	switch {
	case allDigits:
		return "num"
	case unicode.IsUpper(r) && restLower:
		return "ic"
	case allUpper:
		return "ac"
	case allLower:
		return "lc"
	default:
		return "mixed"
	}
}
