package openai

import (
	"bufio"
	"io"
	"strings"
)

type sseEvent struct {
	Data string
}

type sseParser struct {
	scanner *bufio.Scanner
}

func newSSEParser(r io.Reader) *sseParser {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &sseParser{scanner: scanner}
}

// Next returns the next data event in the stream, or io.EOF when exhausted.
func (p *sseParser) Next() (*sseEvent, error) {
	for p.scanner.Scan() {
		line := strings.TrimSpace(p.scanner.Text())
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		if data, ok := strings.CutPrefix(line, "data:"); ok {
			return &sseEvent{Data: strings.TrimSpace(data)}, nil
		}
	}
	if err := p.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}
