package pipeline

import (
	"errors"
	"fmt"
	"io"

	"firestige.xyz/zerg/internal/config"
	"firestige.xyz/zerg/internal/core"
	"firestige.xyz/zerg/internal/frame"
	"firestige.xyz/zerg/internal/log"
	"firestige.xyz/zerg/internal/metrics"
	"firestige.xyz/zerg/internal/store"
)

// DecodeOptions configures Decode.
type DecodeOptions struct {
	MaxRecords int    // store limit, 0 = unlimited
	Gzip       string // config.GzipAuto, GzipAlways or GzipNever
	Logger     log.Logger
}

// DecodeOptionsFrom maps the decode section of cfg.
func DecodeOptionsFrom(cfg *config.Config, logger log.Logger) DecodeOptions {
	return DecodeOptions{
		MaxRecords: cfg.Decode.MaxRecords,
		Gzip:       cfg.Decode.Gzip,
		Logger:     logger,
	}
}

// Decode reads a capture file and returns every zerg packet it carries, in
// file order. Records that are not zerg datagrams are skipped and logged.
//
// The store is returned even when err is not nil and then holds the
// packets decoded before the failure. A capture that is not a 2.4 file
// yields an error wrapping core.ErrUnsupportedFile and an empty store; a
// full store yields core.ErrStoreFull.
func Decode(r io.Reader, opts DecodeOptions) (*store.Store, Stats, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.GetLogger()
	}
	st := store.New(store.WithLimit(opts.MaxRecords))
	var stats Stats
	defer observe(metrics.DirectionDecode, &stats)()

	in, closeFn, err := openCapture(r, opts.Gzip)
	if err != nil {
		return st, stats, err
	}
	defer closeFn() //nolint:errcheck // read side

	fr, err := frame.NewReader(in)
	if err != nil {
		return st, stats, err
	}
	logger.WithFields(log.Fields{
		"big_endian": fr.Header().BigEndian(),
		"snaplen":    fr.Header().SnapLen,
		"link_type":  fr.Header().LinkName(),
	}).Debug("capture header")

	for {
		p, err := fr.Next()
		stats.Records = fr.Record()

		var skip *frame.SkipError
		switch {
		case err == nil:
			if err := st.Append(p); err != nil {
				return st, stats, fmt.Errorf("record %d: %w", fr.Record(), err)
			}
			stats.Accepted++
			metrics.PacketsTotal.WithLabelValues(metrics.DirectionDecode, p.Type.String()).Inc()
			if logger.IsDebugEnabled() {
				logger.WithFields(packetFields(p)).Debug("packet decoded")
			}
		case errors.As(err, &skip):
			stats.Skipped++
			if errors.Is(err, core.ErrUnknownType) {
				stats.Unknown++
			}
			metrics.SkippedTotal.WithLabelValues(metrics.DirectionDecode, metrics.Reason(skip.Err)).Inc()
			logger.WithFields(skipFields(skip)).Warn("record skipped")
		case errors.Is(err, io.EOF):
			logger.WithFields(stats.Fields()).Info("decode finished")
			return st, stats, nil
		case errors.Is(err, io.ErrUnexpectedEOF):
			stats.Truncated = true
			logger.WithField("record", fr.Record()).Warn("capture ends inside a record")
			logger.WithFields(stats.Fields()).Info("decode finished")
			return st, stats, nil
		default:
			return st, stats, fmt.Errorf("record %d: %w", fr.Record(), err)
		}
	}
}
