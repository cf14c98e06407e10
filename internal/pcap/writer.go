package pcap

import (
	"encoding/binary"
	"io"
	"time"
)

// Writer emits a capture file. The global header is written lazily, in
// the same write as the first record, so a run that produces no record
// leaves the output empty.
type Writer struct {
	w           io.Writer
	header      FileHeader
	wroteHeader bool
	records     int
	buf         []byte
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithSnapLen overrides the snapshot length advertised in the global header.
func WithSnapLen(n uint32) WriterOption {
	return func(w *Writer) {
		w.header.SnapLen = n
	}
}

// WithLinkType overrides the link-layer type advertised in the global header.
func WithLinkType(t uint32) WriterOption {
	return func(w *Writer) {
		w.header.LinkType = t
	}
}

// NewWriter returns a Writer whose integer fields use order.
func NewWriter(w io.Writer, order binary.ByteOrder, opts ...WriterOption) *Writer {
	pw := &Writer{w: w, header: NewFileHeader(order)}
	for _, opt := range opts {
		opt(pw)
	}
	return pw
}

// Header returns the global header this writer emits.
func (w *Writer) Header() FileHeader { return w.header }

// HeaderWritten reports whether the global header has been emitted.
func (w *Writer) HeaderWritten() bool { return w.wroteHeader }

// Records returns the number of records written.
func (w *Writer) Records() int { return w.records }

// WriteRecord writes one frame with its record header. The whole record,
// preceded by the global header on first use, goes out in a single Write.
func (w *Writer) WriteRecord(ts time.Time, frame []byte) error {
	b := w.buf[:0]
	if !w.wroteHeader {
		b = w.header.AppendBinary(b)
	}
	rh := RecordHeader{
		CapLen:  uint32(len(frame)),
		OrigLen: uint32(len(frame)),
	}
	if !ts.IsZero() {
		rh.TsSec = uint32(ts.Unix())
		rh.TsUsec = uint32(ts.Nanosecond() / int(time.Microsecond))
	}
	b = rh.AppendBinary(b, w.header.Order)
	b = append(b, frame...)
	w.buf = b

	if _, err := w.w.Write(b); err != nil {
		return err
	}
	w.wroteHeader = true
	w.records++
	return nil
}
