package helpers

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Argument is one whitespace separated part of a command. Start and End index
// the raw text including quotes, Value is the text without them.
type Argument struct {
	Value  string
	Start  int
	End    int
	Quoted bool
}

var closingQuotes = map[rune]rune{
	'“': '”',
	'„': '“',
	'«': '»',
	'»': '«',
	'「': '」',
	'『': '』',
}

// openingQuote reports whether c opens a quoted argument and which rune closes it.
// Apostrophes never open one, "don't" stays a plain word.
func openingQuote(c rune) (rune, bool) {
	switch c {
	case '\'', '‘', '’', '‚', '‛':
		return 0, false
	}
	if !unicode.In(c, unicode.Quotation_Mark) {
		return 0, false
	}
	if closing, ok := closingQuotes[c]; ok {
		return closing, true
	}
	return c, true
}

// ScanArguments splits text at whitespace, keeping "quoted sections" together.
// A quote without its closing counterpart is taken literally.
func ScanArguments(text string) []Argument {
	var arguments []Argument

	i := 0
	for i < len(text) {
		c, size := utf8.DecodeRuneInString(text[i:])
		if unicode.IsSpace(c) {
			i += size
			continue
		}

		if closing, ok := openingQuote(c); ok {
			if end := strings.IndexRune(text[i+size:], closing); end >= 0 {
				valueEnd := i + size + end
				_, closingSize := utf8.DecodeRuneInString(text[valueEnd:])
				arguments = append(arguments, Argument{
					Value:  text[i+size : valueEnd],
					Start:  i,
					End:    valueEnd + closingSize,
					Quoted: true,
				})
				i = valueEnd + closingSize
				continue
			}
		}

		end := strings.IndexFunc(text[i:], unicode.IsSpace)
		if end < 0 {
			end = len(text) - i
		}
		arguments = append(arguments, Argument{
			Value: text[i : i+end],
			Start: i,
			End:   i + end,
		})
		i += end
	}

	return arguments
}

// SplitArguments returns the values of ScanArguments
func SplitArguments(text string) []string {
	arguments := ScanArguments(text)
	values := make([]string, 0, len(arguments))
	for _, argument := range arguments {
		values = append(values, argument.Value)
	}
	return values
}

// SkipArguments returns text without its first n arguments, keeping the
// spacing and quotes of the remainder.
func SkipArguments(text string, n int) string {
	if n <= 0 {
		return strings.TrimSpace(text)
	}
	arguments := ScanArguments(text)
	if len(arguments) <= n {
		return ""
	}
	return strings.TrimSpace(text[arguments[n-1].End:])
}
