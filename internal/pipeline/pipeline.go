// Package pipeline runs the two directions of the codec: capture file to
// packet store, and text records to capture file.
package pipeline

import (
	"bufio"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/prometheus/client_golang/prometheus"

	"firestige.xyz/zerg/internal/config"
	"firestige.xyz/zerg/internal/frame"
	"firestige.xyz/zerg/internal/log"
	"firestige.xyz/zerg/internal/metrics"
	"firestige.xyz/zerg/internal/zerg"
)

// Stats summarizes one run. It is owned by the call that produced it.
type Stats struct {
	Records   int  // capture or text records read
	Accepted  int  // packets decoded or written
	Skipped   int  // records stepped over after a recoverable error
	Unknown   int  // skipped records carrying an unknown zerg type
	Truncated bool // the input ended inside a record
}

// Fields renders s for structured logging.
func (s Stats) Fields() log.Fields {
	return log.Fields{
		"records":   s.Records,
		"accepted":  s.Accepted,
		"skipped":   s.Skipped,
		"unknown":   s.Unknown,
		"truncated": s.Truncated,
	}
}

// observe times a run and, when the returned func is called, adds its
// totals to the metrics registry.
func observe(direction string, stats *Stats) func() {
	timer := prometheus.NewTimer(metrics.RunDurationSeconds.WithLabelValues(direction))
	return func() {
		timer.ObserveDuration()
		metrics.RecordsTotal.WithLabelValues(direction).Add(float64(stats.Records))
		if stats.Truncated {
			metrics.TruncatedTotal.WithLabelValues(direction).Inc()
		}
	}
}

var gzipMagic = []byte{0x1f, 0x8b}

// openCapture returns r, or a decompressing reader over it when mode asks
// for gzip or, in auto mode, when the input starts with the gzip magic.
// Seekable input stays seekable unless it is compressed.
func openCapture(r io.Reader, mode string) (io.Reader, func() error, error) {
	noop := func() error { return nil }

	compressed := false
	switch mode {
	case config.GzipAlways:
		compressed = true
	case config.GzipNever:
	default:
		if rs, ok := r.(io.ReadSeeker); ok {
			var magic [2]byte
			n, err := io.ReadFull(rs, magic[:])
			if _, serr := rs.Seek(int64(-n), io.SeekCurrent); serr != nil {
				return nil, noop, serr
			}
			compressed = err == nil && magic == [2]byte(gzipMagic)
		} else {
			br := bufio.NewReader(r)
			magic, _ := br.Peek(len(gzipMagic))
			compressed = string(magic) == string(gzipMagic)
			r = br
		}
	}
	if !compressed {
		return r, noop, nil
	}

	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, noop, fmt.Errorf("gzip: %w", err)
	}
	return gz, gz.Close, nil
}

func skipFields(skip *frame.SkipError) log.Fields {
	f := log.Fields{
		"record": skip.Record,
		"reason": skip.Reason,
	}
	if skip.Err != nil {
		f["error"] = skip.Err.Error()
	}
	return f
}

func packetFields(p zerg.Packet) log.Fields {
	return log.Fields{
		"type":     p.Type.String(),
		"sequence": p.Sequence,
		"length":   p.Length,
	}
}
