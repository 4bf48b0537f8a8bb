package bm25

import (
	"unicode"
)

// Tokenize lowercases and splits text into Unicode-aware word tokens; CJK
// runs additionally contribute bigram shingles, since CJK text carries no
// whitespace word boundaries for a word tokenizer to find (spec.md §4.4).
func Tokenize(text string) []string {
	var tokens []string
	var word []rune
	var cjkRun []rune

	flushWord := func() {
		if len(word) > 0 {
			tokens = append(tokens, string(word))
			word = word[:0]
		}
	}
	flushCJK := func() {
		if len(cjkRun) >= 2 {
			for i := 0; i < len(cjkRun)-1; i++ {
				tokens = append(tokens, string(cjkRun[i:i+2]))
			}
		} else if len(cjkRun) == 1 {
			tokens = append(tokens, string(cjkRun))
		}
		cjkRun = cjkRun[:0]
	}

	for _, r := range text {
		switch {
		case isCJK(r):
			flushWord()
			cjkRun = append(cjkRun, unicode.ToLower(r))
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			flushCJK()
			word = append(word, unicode.ToLower(r))
		default:
			flushWord()
			flushCJK()
		}
	}
	flushWord()
	flushCJK()

	return tokens
}

// isCJK reports whether r falls in a CJK Unified Ideographs, Hiragana,
// Katakana, or Hangul block — scripts without inter-word whitespace.
func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r) ||
		unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r) ||
		unicode.Is(unicode.Hangul, r)
}
