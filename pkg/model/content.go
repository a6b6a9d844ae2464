// pkg/model/content.go
package model

// ContentFeatures are the privacy-safe signals derived from a piece of
// free text before the text itself is discarded from the user-facing path.
type ContentFeatures struct {
	Length         int     // Character count
	WordCount      int     // Whitespace-separated word count
	HasQuestion    bool    // Contains at least one '?'
	HasExclamation bool    // Contains at least one '!'
	HasEmoji       bool    // Contains at least one emoji rune
	AvgWordLength  float64 // Mean word length, 0 for empty input
}

// AnonymizedContent is the result of anonymizing free text. The original
// text is reachable only through the handle via a trusted reader; the
// placeholder is what every user-facing surface sees.
type AnonymizedContent struct {
	Placeholder string          // Fixed redaction string, never the original
	Features    ContentFeatures // Privacy-safe derived signals
	Handle      string          // Keyed digest of the content, "" for empty input
}

// FeatureVector maps feature names from the fixed schema to numeric values
// for one subject over one time window.
type FeatureVector map[string]float64
