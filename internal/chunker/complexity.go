package chunker

import (
	"math"

	enry "github.com/src-d/enry/v2"
)

const (
	sampleBytes      = 4096
	defaultFactor    = 1.0
	codeFactor       = 1.3
	jsonFactor       = 1.2
	markdownFactor   = 1.1
	maxSizeFactor    = 2.0
	sizeFactorWeight = 0.2
)

// EstimateComplexity scores text on spec.md §4.8's complexity formula: a
// content-type factor derived from language detection on a leading sample,
// combined with a logarithmic size factor. Empty text scores 0; any other
// text scores between 1.0 and 2.6 (codeFactor × maxSizeFactor).
func EstimateComplexity(text string) float64 {
	if len(text) == 0 {
		return 0
	}

	sampleLen := min(len(text), sampleBytes)
	sample := text[:sampleLen]

	contentFactor := classifyContent(sample)
	sizeFactor := 1.0

	if sampleLen > 0 && len(text) > sampleLen {
		ratio := float64(len(text)) / float64(sampleLen)
		sizeFactor = min(maxSizeFactor, 1+sizeFactorWeight*math.Log2(ratio))
	}

	return contentFactor * sizeFactor
}

// classifyContent maps enry's language detection to the content-type factor
// from spec.md §4.8: code scores highest, then JSON, then markdown/prose.
// enry is given no filename, so it falls back to content-only heuristics
// (the same path the teacher exercises when a blob arrives without a path).
func classifyContent(sample string) float64 {
	lang := enry.GetLanguage("", []byte(sample))

	switch lang {
	case "":
		return defaultFactor
	case "JSON":
		return jsonFactor
	case "Markdown":
		return markdownFactor
	case "Text":
		return defaultFactor
	default:
		return codeFactor
	}
}
