package textproto

import (
	"bufio"
	"io"
	"iter"

	"firestige.xyz/zerg/internal/zerg"
)

// WriteRecords writes the text form of every packet, separated by one
// blank line, and returns the number of records written.
func WriteRecords(w io.Writer, packets iter.Seq2[int, zerg.Packet]) (int, error) {
	bw := bufio.NewWriter(w)
	var (
		n   int
		buf []byte
	)
	for _, p := range packets {
		buf = buf[:0]
		if n > 0 {
			buf = append(buf, '\n')
		}
		buf = p.AppendText(buf)
		if _, err := bw.Write(buf); err != nil {
			return n, err
		}
		n++
	}
	return n, bw.Flush()
}
