package snippet

import (
	"iter"
	"strings"

	"docsnip/internal/errors"
)

const fenceToken = "```"

// Fence is one fenced block as written in the document.
type Fence struct {
	// Tag is the trimmed opening line, e.g. "```go title=main.go".
	Tag string
	// Language is the classification of Tag.
	Language Language
	// Body holds every line strictly between the markers, each prefixed
	// with "\n".
	Body string
	// StartLine and EndLine are the 1-indexed lines of the two markers.
	StartLine int
	EndLine   int
}

// Fences yields the fenced blocks of text in document order.
//
// Any line whose trimmed form starts with ``` toggles the in-fence state. The
// opening line is classified as soon as it is seen, so a rejected tag fails
// before the body or the closing marker is looked at. A closing line must be
// exactly ```; anything else, and a document that ends inside a fence, yields
// a FORMAT_ERROR. Every error stops the sequence.
func Fences(text string) iter.Seq2[Fence, error] {
	return func(yield func(Fence, error) bool) {
		var (
			current Fence
			body    strings.Builder
			inFence bool
		)

		for i, line := range strings.Split(text, "\n") {
			lineNum := i + 1
			trimmed := strings.TrimSpace(line)

			if !strings.HasPrefix(trimmed, fenceToken) {
				if inFence {
					body.WriteByte('\n')
					body.WriteString(line)
				}
				continue
			}

			if !inFence {
				lang, err := Classify(trimmed)
				if err != nil {
					yield(Fence{}, err)
					return
				}
				inFence = true
				current = Fence{Tag: trimmed, Language: lang, StartLine: lineNum}
				body.Reset()
				continue
			}

			inFence = false
			if trimmed != fenceToken {
				yield(Fence{}, errors.Newf(errors.FormatError,
					"code fence on line %d must close with a bare ``` but found %q", lineNum, trimmed))
				return
			}

			current.Body = body.String()
			current.EndLine = lineNum
			if !yield(current, nil) {
				return
			}
		}

		if inFence {
			yield(Fence{}, errors.Newf(errors.FormatError,
				"code fence opened on line %d is never closed", current.StartLine))
		}
	}
}

// ScanFences collects Fences(text) into a slice.
func ScanFences(text string) ([]Fence, error) {
	var fences []Fence
	for f, err := range Fences(text) {
		if err != nil {
			return nil, err
		}
		fences = append(fences, f)
	}
	return fences, nil
}
