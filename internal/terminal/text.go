package terminal

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/width"
)

// stretchThreshold is the fill ratio below which Stretch leaves a line alone.
const stretchThreshold = 0.8

// breakAfter are characters a line may be broken after.
var breakAfter = map[rune]bool{
	'.': true, ',': true, '!': true, '?': true, ':': true, ';': true,
	']': true, ')': true, '}': true, '>': true, '"': true, '\'': true, '%': true,
}

// wordMarks end a word when followed by something other than another mark.
var wordMarks = map[rune]bool{
	',': true, '.': true, '!': true, '?': true, ':': true, ';': true,
	']': true, ')': true, '}': true, '>': true,
}

// Cells returns the display width of s in terminal cells.
func Cells(s string) int {
	n := 0
	for _, r := range s {
		n += runeCells(r)
	}
	return n
}

func runeCells(r rune) int {
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return 2
	default:
		return 1
	}
}

// Wrap splits text into chunks of at most limit cells. A chunk ends before its
// last space or after its last closing punctuation mark; a chunk with neither
// is cut hard. Spaces at the start of the following chunk are dropped.
func Wrap(text string, limit int) []string {
	if text == "" {
		return []string{}
	}
	if limit <= 0 {
		return []string{text}
	}

	var lines []string
	rest := text
	for {
		cut := fitPrefix(rest, limit)
		if cut == len(rest) {
			break
		}

		part := rest[:cut]
		if end := breakPoint(part); end > 0 {
			part = part[:end]
		}
		lines = append(lines, part)
		rest = strings.TrimLeft(rest[len(part):], " ")
		if rest == "" {
			break
		}
	}
	if rest != "" {
		lines = append(lines, rest)
	}
	return lines
}

// fitPrefix returns the byte length of the longest prefix of s that fits into
// limit cells. At least one rune is always taken.
func fitPrefix(s string, limit int) int {
	cells := 0
	for i, r := range s {
		cells += runeCells(r)
		if cells > limit {
			if i == 0 {
				return utf8.RuneLen(r)
			}
			return i
		}
	}
	return len(s)
}

// breakPoint returns the byte length the chunk should be trimmed to, or 0 when
// it has no break opportunity.
func breakPoint(part string) int {
	for i := len(part); i > 0; {
		r, size := utf8.DecodeLastRuneInString(part[:i])
		i -= size
		if r == ' ' {
			return i
		}
		if breakAfter[r] {
			return i + size
		}
	}
	return 0
}

// Stretch justifies text to width by spreading extra spaces over the gaps
// between words. Lines filling less than 80% of width are returned unchanged.
func Stretch(text string, width int) string {
	length := utf8.RuneCountInString(text)
	if width <= 0 || float64(length)/float64(width) < stretchThreshold {
		return text
	}

	words := splitWords(text)
	used := 0
	for _, w := range words {
		used += utf8.RuneCountInString(w)
	}
	gaps := len(words) - 1
	missing := width - used
	if missing <= 0 || gaps == 0 {
		return text
	}

	per, extra := missing/gaps, missing%gaps
	var b strings.Builder
	for i, w := range words {
		b.WriteString(w)
		if i == gaps {
			break
		}
		n := per
		if extra > 0 {
			n++
			extra--
		}
		b.WriteString(strings.Repeat(" ", n))
	}

	out := b.String()
	if pad := width - utf8.RuneCountInString(out); pad > 0 {
		out += strings.Repeat(" ", pad)
	}
	return out
}

// splitWords cuts text after every space and after a run of word marks.
// Trailing spaces stay attached to their word; lone spaces are dropped.
func splitWords(text string) []string {
	if text == "" {
		return []string{""}
	}

	runes := []rune(text)
	var words []string
	var cur []rune
	flush := func() {
		if w := string(cur); w != " " && w != "" {
			words = append(words, w)
		}
		cur = cur[:0]
	}

	for i, r := range runes {
		cur = append(cur, r)
		if i == len(runes)-1 {
			break
		}
		next := runes[i+1]
		if r == ' ' || (wordMarks[r] && next == ' ') || (wordMarks[r] && !wordMarks[next]) {
			flush()
		}
	}
	flush()
	return words
}
