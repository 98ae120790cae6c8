package osm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Record is one tag-bearing line of input.
type Record struct {
	Line        int    // 1-based physical line number
	Name        string // tag name without the leading '/' of a closing tag
	Opening     bool   // false for </name>
	SelfClosing bool   // the line's final '>' is preceded by '/'
	Attrs       string // raw text following the tag name
	Err         error  // set when the line holds a malformed tag
}

// Scanner splits a line-oriented source into tag records. Each physical
// line contributes at most one record: the first tag on the line. Lines
// without a '<' are skipped. A Scanner cannot be restarted.
//
// Attributes must sit on the same physical line as their tag name.
type Scanner struct {
	r       *bufio.Reader
	maxLine int
	line    int
	rec     Record
	err     error
	done    bool
}

// DefaultMaxLineBytes bounds a physical line. Longer lines are skipped
// and reported with ErrLineTooLong.
const DefaultMaxLineBytes = 1 << 20

// NewScanner returns a scanner reading from r.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{
		r:       bufio.NewReaderSize(r, 64*1024),
		maxLine: DefaultMaxLineBytes,
	}
}

// SetMaxLineBytes changes the line length bound. It must be called
// before the first Scan; n <= 0 restores the default.
func (s *Scanner) SetMaxLineBytes(n int) {
	if n <= 0 {
		n = DefaultMaxLineBytes
	}
	s.maxLine = n
}

// Scan advances to the next record. It returns false at end of input or on
// a read error; Err distinguishes the two.
func (s *Scanner) Scan() bool {
	for !s.done {
		raw, n, err := s.readLine()
		if err != nil {
			s.done = true
			if !errors.Is(err, io.EOF) {
				s.err = fmt.Errorf("read line %d: %w: %w", s.line+1, ErrIO, err)
				return false
			}
			if n == 0 {
				return false
			}
		}
		s.line++

		if n > s.maxLine {
			s.rec = Record{
				Line: s.line,
				Err:  fmt.Errorf("%d bytes, limit %d: %w", n, s.maxLine, ErrLineTooLong),
			}
			return true
		}

		rec, ok := scanLine(raw)
		if !ok {
			continue
		}
		rec.Line = s.line
		s.rec = rec
		return true
	}
	return false
}

// readLine reads one physical line. n counts every byte of the line; the
// text is dropped once n passes maxLine so memory stays bounded.
func (s *Scanner) readLine() (line string, n int, err error) {
	var buf []byte
	for {
		chunk, rerr := s.r.ReadSlice('\n')
		n += len(chunk)
		if n <= s.maxLine {
			buf = append(buf, chunk...)
		} else {
			buf = nil
		}
		if errors.Is(rerr, bufio.ErrBufferFull) {
			continue
		}
		return string(buf), n, rerr
	}
}

// Record returns the most recent record produced by Scan.
func (s *Scanner) Record() Record {
	return s.rec
}

// Line returns the number of physical lines consumed so far.
func (s *Scanner) Line() int {
	return s.line
}

// Err returns the first read error, or nil if the scan ended at EOF.
func (s *Scanner) Err() error {
	return s.err
}

var errUnterminatedName = fmt.Errorf("unterminated tag name: %w", ErrFormat)
var errEmptyName = fmt.Errorf("empty tag name: %w", ErrFormat)

// scanLine extracts the first tag of a line. ok is false when the line has
// no tag start at all.
func scanLine(raw string) (rec Record, ok bool) {
	line := strings.TrimRight(raw, " \t\r\n")

	start := strings.IndexByte(line, '<')
	if start < 0 {
		return Record{}, false
	}

	rest := line[start+1:]
	end := strings.IndexAny(rest, " \t>")
	if end < 0 {
		return Record{Err: errUnterminatedName}, true
	}

	name := rest[:end]
	// <nd/> style: the self-closing slash directly follows the name
	if len(name) > 1 && strings.HasSuffix(name, "/") {
		name = name[:len(name)-1]
	}

	rec.Opening = true
	if strings.HasPrefix(name, "/") {
		rec.Opening = false
		name = name[1:]
	}
	if name == "" {
		return Record{Err: errEmptyName}, true
	}

	rec.Name = name
	rec.Attrs = rest[end+1:]
	rec.SelfClosing = isSelfClosing(line)
	return rec, true
}

// isSelfClosing reports whether the final '>' of line is preceded by '/'.
func isSelfClosing(line string) bool {
	i := strings.LastIndexByte(line, '>')
	return i > 0 && line[i-1] == '/'
}
