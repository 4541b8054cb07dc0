// Package segment implements the Streaming Buffer: splitting a large text
// into segments at natural boundaries, grounded on the paragraph/line/
// sentence/word cascade confirmed against the original orchestrator's
// chunking routine.
package segment

import (
	"bytes"

	"github.com/Sumatoshi-tech/parallax/pkg/textutil"
)

// Boundary search windows from spec.md §4.7.
const (
	paragraphWindow  = 100
	lineWindow       = 50
	sentenceLookback = 100
	wordLookback     = 50
)

var sentenceTerminators = [][]byte{[]byte(". "), []byte("! "), []byte("? ")}

const (
	conservativeMaxTarget = 25_000
	conservativeDivisor   = 4
)

// Split divides text into segments of about chunkSizeBytes, preferring
// natural boundaries over a hard cut. A paragraph or line break found after
// the target makes a segment up to 100 or 50 bytes longer than
// chunkSizeBytes. Concatenating the returned segments always reproduces text
// exactly.
func Split(text string, chunkSizeBytes int) []string {
	return split([]byte(text), chunkSizeBytes, false)
}

// SplitConservative is the emergency variant: it targets
// min(chunkSizeBytes/4, 25000) bytes and falls back to a hard cut only when
// no paragraph, line or sentence boundary lies in its usual search window
// and no space occurs anywhere before the target.
func SplitConservative(text string, chunkSizeBytes int) []string {
	target := chunkSizeBytes / conservativeDivisor
	if target > conservativeMaxTarget {
		target = conservativeMaxTarget
	}

	if target < 1 {
		target = 1
	}

	return split([]byte(text), target, true)
}

func split(text []byte, target int, conservative bool) []string {
	if target < 1 {
		target = 1
	}

	var segments []string

	remaining := text

	for len(remaining) > target {
		cut := cutPoint(remaining, target, conservative)
		if cut <= 0 || cut > len(remaining) {
			cut = target
		}

		segments = append(segments, string(remaining[:cut]))
		remaining = remaining[cut:]
	}

	if len(remaining) > 0 {
		segments = append(segments, string(remaining))
	}

	return segments
}

// cutPoint finds where to cut b, trying natural boundaries near target
// before falling back to a hard cut at target.
func cutPoint(b []byte, target int, conservative bool) int {
	n := len(b)
	if target >= n {
		return n
	}

	// Paragraph/line/sentence/word boundaries assume text; binary-looking
	// input skips straight to a hard cut rather than searching for bytes
	// that carry no structural meaning in it.
	if textutil.IsBinary(b) {
		return target
	}

	if idx, ok := nearestWindow(b, target, paragraphWindow, []byte("\n\n"), 2); ok {
		return idx
	}

	if idx, ok := nearestWindow(b, target, lineWindow, []byte("\n"), 1); ok {
		return idx
	}

	if idx, ok := precedingSentence(b, target, sentenceLookback); ok {
		return idx
	}

	if idx, ok := precedingByte(b, target, wordLookback, ' '); ok {
		return idx
	}

	if conservative {
		if idx, ok := precedingByte(b, target, target, ' '); ok {
			return idx
		}
	}

	return target
}

// nearestWindow searches [target-window, target+window] for sep, returning
// the cut point immediately after the closest occurrence to target.
func nearestWindow(b []byte, target, window int, sep []byte, sepLen int) (int, bool) {
	lo := max(target-window, 0)
	hi := min(target+window, len(b))

	best := -1
	bestDist := window + 1

	searchFrom := lo
	for {
		rel := bytes.Index(b[searchFrom:hi], sep)
		if rel < 0 {
			break
		}

		pos := searchFrom + rel
		dist := abs(pos - target)

		if dist < bestDist {
			bestDist = dist
			best = pos + sepLen
		}

		searchFrom = pos + 1
		if searchFrom >= hi {
			break
		}
	}

	if best < 0 {
		return 0, false
	}

	return best, true
}

// precedingSentence searches [target-lookback, target] for the rightmost
// sentence terminator, cutting immediately after it.
func precedingSentence(b []byte, target, lookback int) (int, bool) {
	lo := max(target-lookback, 0)

	best := -1

	for _, term := range sentenceTerminators {
		rel := bytes.LastIndex(b[lo:min(target+1, len(b))], term)
		if rel < 0 {
			continue
		}

		pos := lo + rel + len(term)
		if pos > best {
			best = pos
		}
	}

	if best < 0 {
		return 0, false
	}

	return best, true
}

// precedingByte searches [target-lookback, target] for the rightmost sep
// byte, cutting immediately after it.
func precedingByte(b []byte, target, lookback int, sep byte) (int, bool) {
	lo := max(target-lookback, 0)
	hi := min(target, len(b))

	for i := hi - 1; i >= lo; i-- {
		if b[i] == sep {
			return i + 1, true
		}
	}

	return 0, false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}

	return v
}
