package process

import (
	"bytes"
	"strings"

	"tonearm/internal/textutil"
)

// lineSplitter accumulates output chunks and yields complete lines. Both '\n'
// and '\r' terminate a line since most codec tools redraw progress with '\r'.
type lineSplitter struct {
	pending []byte
}

func (s *lineSplitter) feed(chunk []byte, emit func(string)) {
	s.pending = append(s.pending, chunk...)
	for {
		idx := bytes.IndexAny(s.pending, "\r\n")
		if idx < 0 {
			return
		}
		emit(cleanLine(s.pending[:idx]))
		s.pending = s.pending[idx+1:]
	}
}

func (s *lineSplitter) flush(emit func(string)) {
	if len(s.pending) == 0 {
		return
	}
	emit(cleanLine(s.pending))
	s.pending = nil
}

func cleanLine(raw []byte) string {
	return textutil.Simplify(strings.ToValidUTF8(string(raw), "�"))
}
