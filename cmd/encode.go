package cmd

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"firestige.xyz/zerg/internal/log"
	"firestige.xyz/zerg/internal/pipeline"
)

var bigEndian bool

var encodeCmd = &cobra.Command{
	Use:   "encode [-b] <infile> <outfile>",
	Short: "Build a capture file from text records",
	Long: `Read text records in the form printed by decode and write a pcap capture
file holding one Ethernet/IPv4/UDP frame per record. Malformed records are
reported on stderr and left out.

The capture header uses little-endian byte order unless -b is given or
encode.byte_order is set to big in the config file.

Examples:
  zerg encode packets.txt out.pcap
  zerg encode -b packets.txt out.pcap`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := pipeline.EncodeOptionsFrom(cfg, log.GetLogger())
		if bigEndian {
			opts.ByteOrder = binary.BigEndian
		}
		return runEncode(args[0], args[1], opts)
	},
}

func init() {
	encodeCmd.Flags().BoolVarP(&bigEndian, "big-endian", "b", false,
		"write big-endian capture headers")
}

// runEncode encodes the text records of inPath into a capture file at outPath.
func runEncode(inPath, outPath string, opts pipeline.EncodeOptions) error {
	in, err := os.Open(inPath)
	if err != nil {
		return withCode(ExitFile, fmt.Errorf("failed to open input: %w", err))
	}
	defer in.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return withCode(ExitFile, fmt.Errorf("failed to create output: %w", err))
	}

	if err := encodeTo(in, out, opts); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return withCode(ExitFile, fmt.Errorf("failed to write output: %w", err))
	}
	return nil
}

// encodeTo runs the encoder from in to out. The records written before a
// failure are flushed to out.
func encodeTo(in io.Reader, out io.Writer, opts pipeline.EncodeOptions) error {
	w := bufio.NewWriter(out)
	_, err := pipeline.Encode(bufio.NewReader(in), w, opts)
	if ferr := w.Flush(); ferr != nil && err == nil {
		err = fmt.Errorf("failed to write output: %w", ferr)
	}
	return withCode(ExitFile, err)
}
