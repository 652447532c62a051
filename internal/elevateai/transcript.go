package elevateai

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Segment is one timestamped utterance in a transcript. Offsets are milliseconds.
type Segment struct {
	Participant     string  `json:"participant"`
	StartTimeOffset int64   `json:"startTimeOffset"`
	EndTimeOffset   int64   `json:"endTimeOffset"`
	Score           float64 `json:"score"`
	Phrase          string  `json:"phrase"`
}

// Document is the structured transcript returned by the remote service.
// Raw keeps the response exactly as received so it can be delivered untouched.
type Document struct {
	SentenceSegments []Segment       `json:"sentenceSegments"`
	Raw              json.RawMessage `json:"-"`
}

// TranscriptResult is the outcome of a transcript fetch. A nil Document means
// the service reported no content, which is a valid terminal outcome.
type TranscriptResult struct {
	Document *Document
}

// Empty reports whether the service returned no transcript content.
func (r *TranscriptResult) Empty() bool {
	return r == nil || r.Document == nil
}

// Render produces the human-readable transcript, one
// "speaker:(start-end):confidence: text" line per segment.
func (d *Document) Render() string {
	lines := make([]string, 0, len(d.SentenceSegments))
	for _, seg := range d.SentenceSegments {
		var b strings.Builder
		b.WriteString(seg.Participant)
		b.WriteString(":(")
		b.WriteString(strconv.FormatInt(seg.StartTimeOffset, 10))
		b.WriteString("-")
		b.WriteString(strconv.FormatInt(seg.EndTimeOffset, 10))
		b.WriteString("):")
		b.WriteString(strconv.FormatFloat(seg.Score, 'f', -1, 64))
		b.WriteString(": ")
		b.WriteString(seg.Phrase)
		lines = append(lines, b.String())
	}
	return strings.Join(lines, "\n")
}

// IndentedJSON returns the document as indented JSON for delivery as a file.
func (d *Document) IndentedJSON() ([]byte, error) {
	if len(d.Raw) > 0 {
		var v any
		if err := json.Unmarshal(d.Raw, &v); err == nil {
			return json.MarshalIndent(v, "", "    ")
		}
	}
	return json.MarshalIndent(d, "", "    ")
}
