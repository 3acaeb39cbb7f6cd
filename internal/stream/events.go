package stream

import (
	"bufio"
	"io"
	"strings"
)

// Event names of the review stream protocol. Anything else is a protocol
// violation and aborts the stream.
const (
	EventIssues   = "issues"
	EventError    = "error"
	EventComplete = "complete"
)

// Event is one decoded server-sent event frame.
type Event struct {
	Name string
	Data string
}

// maxLineSize bounds a single stream line; issue batches arrive as one JSON
// array per data line.
const maxLineSize = 4 * 1024 * 1024

// decodeEvents reads server-sent-event frames from r and hands each complete
// frame to emit, in arrival order. Frames are separated by blank lines;
// multiple data lines within one frame are joined with newlines. Comment
// lines (leading colon) and unknown fields are skipped per the SSE format.
// Decoding stops at EOF or on the first error returned by emit.
func decodeEvents(r io.Reader, emit func(Event) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	var (
		name     string
		data     []string
		haveData bool
	)

	flush := func() error {
		if name == "" && !haveData {
			return nil
		}
		ev := Event{Name: name, Data: strings.Join(data, "\n")}
		name, data, haveData = "", nil, false
		return emit(ev)
	}

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if err := flush(); err != nil {
				return err
			}
		case strings.HasPrefix(line, ":"):
			// comment / keep-alive
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
			haveData = true
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	return flush()
}
