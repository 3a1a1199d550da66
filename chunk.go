package godeepl

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Chunk is a piece of a longer text. Sep is the whitespace that separated
// it from the next chunk in the source, reduced to "", " ", "\n" or "\n\n".
type Chunk struct {
	Text string
	Sep  string
}

// SplitText cuts text into chunks of at most limit runes, breaking only on
// whitespace. A single word longer than limit is hard cut. The text is
// trimmed first; an empty text yields no chunks. limit <= 0 disables
// splitting.
func SplitText(text string, limit int) []Chunk {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return []Chunk{{Text: text}}
	}

	var chunks []Chunk
	var cur strings.Builder
	curLen := 0

	flush := func(sep string) {
		if curLen == 0 {
			return
		}
		chunks = append(chunks, Chunk{Text: cur.String(), Sep: sep})
		cur.Reset()
		curLen = 0
	}

	for _, tok := range tokenize(text) {
		wordLen := utf8.RuneCountInString(tok.word)
		gapLen := utf8.RuneCountInString(tok.gap)

		if curLen > 0 && curLen+gapLen+wordLen <= limit {
			cur.WriteString(tok.gap)
			cur.WriteString(tok.word)
			curLen += gapLen + wordLen
			continue
		}

		flush(reduceGap(tok.gap))

		if wordLen <= limit {
			cur.WriteString(tok.word)
			curLen = wordLen
			continue
		}

		runes := []rune(tok.word)
		for len(runes) > limit {
			chunks = append(chunks, Chunk{Text: string(runes[:limit])})
			runes = runes[limit:]
		}
		cur.WriteString(string(runes))
		curLen = len(runes)
	}
	flush("")

	return chunks
}

// JoinChunks reassembles per-chunk translations using the separators
// recorded by SplitText.
func JoinChunks(chunks []Chunk, translated []string) string {
	var b strings.Builder
	for i, text := range translated {
		b.WriteString(text)
		if i < len(translated)-1 && i < len(chunks) {
			b.WriteString(chunks[i].Sep)
		}
	}
	return b.String()
}

type token struct {
	gap  string // whitespace before word
	word string
}

func tokenize(s string) []token {
	var toks []token
	i := 0
	for i < len(s) {
		start := i
		for i < len(s) {
			r, size := utf8.DecodeRuneInString(s[i:])
			if !unicode.IsSpace(r) {
				break
			}
			i += size
		}
		gapEnd := i
		for i < len(s) {
			r, size := utf8.DecodeRuneInString(s[i:])
			if unicode.IsSpace(r) {
				break
			}
			i += size
		}
		if gapEnd == i {
			break
		}
		toks = append(toks, token{gap: s[start:gapEnd], word: s[gapEnd:i]})
	}
	return toks
}

func reduceGap(gap string) string {
	switch n := strings.Count(gap, "\n"); {
	case n >= 2:
		return "\n\n"
	case n == 1:
		return "\n"
	case gap == "":
		return ""
	default:
		return " "
	}
}
