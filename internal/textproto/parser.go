// Package textproto reads and writes the line-oriented text form of zerg
// packets: one "Label: value" line per field, records separated by blank
// lines, every record starting with a "Version:" line.
package textproto

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"firestige.xyz/zerg/internal/zerg"
)

// ErrLabelMismatch is reported when a line carries a different label than
// the one the record grammar expects next.
var ErrLabelMismatch = errors.New("unexpected label")

const recordStart = "Version"

// ParseError describes a text record that was discarded. Parsing resumes
// at the next "Version:" line.
type ParseError struct {
	Record   int // 1-based index of the record being parsed
	Line     int // 1-based line number of the offending line
	Expected string
	Received string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: expected %s, received %q: %v", e.Line, e.Expected, e.Received, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// readError marks a failure of the underlying reader, which is never
// recoverable.
type readError struct{ err error }

func (e *readError) Error() string { return e.err.Error() }
func (e *readError) Unwrap() error { return e.err }

// cursor reads input one line at a time and can push the last line back.
// It is the zerg.FieldReader handed to the record grammar.
type cursor struct {
	r       *bufio.Reader
	line    int    // number of the last consumed line
	last    string // last consumed line
	pending bool   // last was pushed back and will be returned again
	eof     bool
}

// Field consumes the next line, failing unless it carries label.
func (c *cursor) Field(label string) (string, error) {
	got, value, err := c.Next()
	if err != nil {
		return "", err
	}
	if got != label {
		return "", &ParseError{Line: c.line, Expected: label, Received: got, Err: ErrLabelMismatch}
	}
	return value, nil
}

// Next consumes the next line whatever its label.
func (c *cursor) Next() (label, value string, err error) {
	line, err := c.readLine()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return "", "", io.ErrUnexpectedEOF
		}
		return "", "", err
	}
	label, value = splitLine(line)
	return label, value, nil
}

func (c *cursor) readLine() (string, error) {
	if c.pending {
		c.pending = false
		c.line++
		return c.last, nil
	}
	if c.eof {
		return "", io.EOF
	}
	line, err := c.r.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return "", &readError{err: err}
		}
		c.eof = true
		if line == "" {
			return "", io.EOF
		}
	}
	c.line++
	c.last = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
	return c.last, nil
}

func (c *cursor) unread() {
	c.pending = true
	c.line--
}

// Parser reads text records one at a time.
type Parser struct {
	c      cursor
	record int
	first  int // line number of the current record's first line
	resync bool
}

// NewParser returns a Parser reading from r.
func NewParser(r io.Reader) *Parser {
	return &Parser{c: cursor{r: bufio.NewReader(r)}}
}

// Line returns the number of the last line consumed.
func (p *Parser) Line() int { return p.c.line }

// Record returns the 1-based index of the last record attempted.
func (p *Parser) Record() int { return p.record }

// Next parses the next record.
//
// A malformed record yields a *ParseError; the following call resumes at
// the next "Version:" line. io.EOF is returned between records and
// io.ErrUnexpectedEOF when the input ends inside one; both are terminal.
func (p *Parser) Next() (zerg.Packet, error) {
	if p.resync {
		p.resync = false
		if err := p.skipToRecord(); err != nil {
			return zerg.Packet{}, unwrapRead(err)
		}
	}

	for {
		line, err := p.c.readLine()
		if err != nil {
			return zerg.Packet{}, unwrapRead(err)
		}
		if strings.TrimSpace(line) != "" {
			p.c.unread()
			break
		}
	}
	p.record++
	p.first = p.c.line + 1

	pkt, err := zerg.ReadText(&p.c)
	if err == nil {
		return pkt, nil
	}

	var re *readError
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return zerg.Packet{}, io.ErrUnexpectedEOF
	case errors.As(err, &re):
		return zerg.Packet{}, re.err
	}
	p.resync = true
	return zerg.Packet{}, p.parseError(err)
}

func (p *Parser) parseError(err error) *ParseError {
	var (
		pe  *ParseError
		ve  *zerg.ValueError
		ube *zerg.UnknownBlockError
	)
	line := p.c.line
	switch {
	case errors.As(err, &pe):
		pe.Record = p.record
		return pe
	case errors.As(err, &ve):
		return &ParseError{Record: p.record, Line: line, Expected: ve.Label + " value", Received: strings.TrimSpace(ve.Value), Err: ve.Err}
	case errors.As(err, &ube):
		return &ParseError{Record: p.record, Line: line, Expected: strings.Join(zerg.PayloadLabels, " | "), Received: ube.Label, Err: err}
	default:
		return &ParseError{Record: p.record, Line: line, Expected: "encodable record", Received: strings.TrimSpace(p.c.last), Err: err}
	}
}

// skipToRecord moves to the next "Version:" line. The offending line is
// itself kept when it starts a record other than the one that failed.
func (p *Parser) skipToRecord() error {
	if p.c.line != p.first && isRecordStart(p.c.last) {
		p.c.unread()
		return nil
	}
	for {
		line, err := p.c.readLine()
		if err != nil {
			return err
		}
		if isRecordStart(line) {
			p.c.unread()
			return nil
		}
	}
}

func unwrapRead(err error) error {
	var re *readError
	if errors.As(err, &re) {
		return re.err
	}
	return err
}

func splitLine(line string) (label, value string) {
	label, value, ok := strings.Cut(line, ":")
	if !ok {
		return strings.TrimSpace(line), ""
	}
	return strings.TrimSpace(label), value
}

func isRecordStart(line string) bool {
	label, _ := splitLine(line)
	return label == recordStart
}
