package segmenter

import "strings"

// digitWords maps each decimal digit to its English word. The same table
// drives numeric placeholder resolution and pre-synthesis expansion, so the
// two paths can never disagree on a digit's spoken form.
var digitWords = map[rune]string{
	'0': "zero", '1': "one", '2': "two", '3': "three", '4': "four",
	'5': "five", '6': "six", '7': "seven", '8': "eight", '9': "nine",
}

// DigitWord returns the English word for a decimal digit rune.
func DigitWord(r rune) (string, bool) {
	w, ok := digitWords[r]
	return w, ok
}

// IsDigits reports whether s is non-empty and consists only of decimal
// digits.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ExpandDigits rewrites every digit in text as its English word, so a
// synthesizer never has to guess how to read "12". Consecutive digits become
// space-separated words ("12" -> "one two"); surrounding text is untouched.
func ExpandDigits(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	prevDigit := false
	for _, r := range text {
		if w, ok := digitWords[r]; ok {
			if prevDigit {
				b.WriteByte(' ')
			}
			b.WriteString(w)
			prevDigit = true
			continue
		}
		prevDigit = false
		b.WriteRune(r)
	}
	return b.String()
}
