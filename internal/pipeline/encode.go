package pipeline

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"firestige.xyz/zerg/internal/config"
	"firestige.xyz/zerg/internal/core"
	"firestige.xyz/zerg/internal/frame"
	"firestige.xyz/zerg/internal/log"
	"firestige.xyz/zerg/internal/metrics"
	"firestige.xyz/zerg/internal/pcap"
	"firestige.xyz/zerg/internal/textproto"
)

// EncodeOptions configures Encode.
type EncodeOptions struct {
	ByteOrder binary.ByteOrder // container header byte order
	SnapLen   uint32
	Endpoints frame.Endpoints
	Logger    log.Logger
}

// EncodeOptionsFrom maps the encode section of cfg.
func EncodeOptionsFrom(cfg *config.Config, logger log.Logger) EncodeOptions {
	enc := cfg.Encode
	return EncodeOptions{
		ByteOrder: enc.ByteOrder,
		SnapLen:   enc.SnapLen,
		Endpoints: frame.Endpoints{
			SrcMAC:  enc.SrcMAC,
			DstMAC:  enc.DstMAC,
			SrcIP:   enc.SrcIP,
			DstIP:   enc.DstIP,
			SrcPort: enc.SrcPort,
			TTL:     enc.TTL,
		},
		Logger: logger,
	}
}

// Encode reads text records from r and writes them to w as a capture
// file. Malformed records are logged and left out. The capture header is
// written with the first record, so w stays empty when none is valid.
// Input ending inside a record stops the run and keeps what was written.
func Encode(r io.Reader, w io.Writer, opts EncodeOptions) (Stats, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.GetLogger()
	}
	order := opts.ByteOrder
	if order == nil {
		order = binary.LittleEndian
	}
	ep := opts.Endpoints
	if ep.SrcMAC == nil {
		ep = frame.DefaultEndpoints()
	}
	var pcapOpts []pcap.WriterOption
	if opts.SnapLen != 0 {
		pcapOpts = append(pcapOpts, pcap.WithSnapLen(opts.SnapLen))
	}

	parser := textproto.NewParser(r)
	fw := frame.NewWriter(w, order, ep, pcapOpts...)
	var stats Stats
	defer observe(metrics.DirectionEncode, &stats)()

	for {
		p, err := parser.Next()
		if !errors.Is(err, io.EOF) {
			stats.Records = parser.Record()
		}

		var perr *textproto.ParseError
		switch {
		case err == nil:
			if err := fw.WritePacket(p); err != nil {
				if !errors.Is(err, core.ErrValueOutOfRange) {
					return stats, fmt.Errorf("record %d: %w", parser.Record(), err)
				}
				stats.Skipped++
				metrics.SkippedTotal.WithLabelValues(metrics.DirectionEncode, metrics.Reason(err)).Inc()
				logger.WithFields(log.Fields{
					"record": parser.Record(),
					"line":   parser.Line(),
					"reason": err.Error(),
				}).Warn("record not encodable")
				continue
			}
			stats.Accepted++
			metrics.PacketsTotal.WithLabelValues(metrics.DirectionEncode, p.Type.String()).Inc()
			if logger.IsDebugEnabled() {
				logger.WithFields(packetFields(p)).Debug("packet encoded")
			}
		case errors.As(err, &perr):
			stats.Skipped++
			metrics.SkippedTotal.WithLabelValues(metrics.DirectionEncode, metrics.ReasonParse).Inc()
			logger.WithFields(log.Fields{
				"record":   perr.Record,
				"line":     perr.Line,
				"expected": perr.Expected,
				"received": perr.Received,
				"reason":   perr.Err.Error(),
			}).Warn("record discarded")
		case errors.Is(err, io.EOF):
			logger.WithFields(stats.Fields()).Info("encode finished")
			return stats, nil
		case errors.Is(err, io.ErrUnexpectedEOF):
			stats.Truncated = true
			logger.WithFields(log.Fields{"record": parser.Record(), "line": parser.Line()}).Warn("input ends inside a record")
			logger.WithFields(stats.Fields()).Info("encode finished")
			return stats, nil
		default:
			return stats, err
		}
	}
}
