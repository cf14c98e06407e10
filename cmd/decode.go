package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"firestige.xyz/zerg/internal/core"
	"firestige.xyz/zerg/internal/log"
	"firestige.xyz/zerg/internal/pipeline"
	"firestige.xyz/zerg/internal/textproto"
)

var decodeCmd = &cobra.Command{
	Use:   "decode <capture-file>",
	Short: "Print the zerg packets of a capture file",
	Long: `Read a pcap capture file (optionally gzip compressed) and print every zerg
packet it carries as a text record, in file order, with a blank line between
records. Records that are not zerg datagrams are skipped and reported on stderr.

Examples:
  zerg decode capture.pcap
  zerg decode -l debug capture.pcap.gz > packets.txt`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := pipeline.DecodeOptionsFrom(cfg, log.GetLogger())
		return runDecode(args[0], cmd.OutOrStdout(), opts)
	},
}

// runDecode decodes the capture at path and writes the text records to out.
// When the store limit is hit, the packets decoded so far are still printed.
func runDecode(path string, out io.Writer, opts pipeline.DecodeOptions) error {
	if opts.Logger == nil {
		opts.Logger = log.GetLogger()
	}

	f, err := os.Open(path)
	if err != nil {
		return withCode(ExitFile, fmt.Errorf("failed to open capture: %w", err))
	}
	defer f.Close()

	st, _, err := pipeline.Decode(f, opts)
	defer st.Release()

	var code int
	switch {
	case err == nil:
	case errors.Is(err, core.ErrUnsupportedFile):
		opts.Logger.WithField("file", path).WithError(err).Warn("unsupported file")
		return nil
	case errors.Is(err, core.ErrStoreFull):
		code = ExitAlloc
	default:
		return withCode(ExitFile, fmt.Errorf("failed to read capture: %w", err))
	}

	if _, werr := textproto.WriteRecords(out, st.All()); werr != nil {
		return withCode(ExitFile, fmt.Errorf("failed to write records: %w", werr))
	}
	return withCode(code, err)
}
