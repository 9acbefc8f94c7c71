package markdown

import (
	"strings"
	"sync"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"inkwell/internal/utils/text"
)

// wordsPerMinute is the average adult silent-reading speed used for the
// reading time estimate.
const wordsPerMinute = 238

var (
	strictPolicy *bluemonday.Policy
	strictOnce   sync.Once
)

func stripTags(html string) string {
	strictOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	return strictPolicy.Sanitize(html)
}

// PlainText extracts the readable text of a rendered fragment, markup removed
// and whitespace collapsed. Goldmark newline-separates block elements, so the
// text nodes of adjacent paragraphs never run together.
func PlainText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return collapse(stripTags(html))
	}
	return collapse(doc.Text())
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Excerpt returns up to maxRunes runes of the fragment's plain text,
// truncated at a rune boundary with a trailing ellipsis.
func Excerpt(html string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	plain := PlainText(html)
	if text.CountRunes(plain) <= maxRunes {
		return plain
	}
	runes := []rune(plain)
	return strings.TrimSpace(string(runes[:maxRunes])) + "…"
}

// WordCount approximates the number of words in a rendered fragment.
// Space-delimited scripts count whitespace-separated runs; han and kana
// runes count one word each because those scripts are written without
// spaces.
// 日本語・中国語は1文字を1語として数える
func WordCount(html string) int {
	words := 0
	inWord := false
	for _, r := range PlainText(html) {
		switch {
		case unicode.Is(unicode.Han, r), unicode.Is(unicode.Hiragana, r), unicode.Is(unicode.Katakana, r):
			words++
			inWord = false
		case unicode.IsSpace(r):
			inWord = false
		default:
			if !inWord {
				words++
				inWord = true
			}
		}
	}
	return words
}

// ReadingTimeMinutes estimates reading time for a rendered fragment, rounded
// up and never less than one minute.
func ReadingTimeMinutes(html string) int {
	minutes := (WordCount(html) + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}
