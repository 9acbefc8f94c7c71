// Package text provides utilities for text processing and analysis.
// This package includes reusable functions for character counting used by
// excerpt truncation.
package text

// CountRunes counts the number of Unicode characters (runes) in the given text.
// This function correctly handles multi-byte characters including Japanese,
// Chinese, emoji, and other Unicode characters by counting runes instead of
// bytes, so excerpt limits behave the same for every script.
//
// Examples:
//
//	CountRunes("hello")          // returns 5 (ASCII text)
//	CountRunes("こんにちは")       // returns 5 (Japanese text)
//	CountRunes("hello世界")       // returns 7 (mixed text)
//	CountRunes("Hello👋")         // returns 6 (text with emoji)
//	CountRunes("")               // returns 0 (empty string)
func CountRunes(text string) int {
	return len([]rune(text))
}
