package harness

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"testing"

	"github.com/grailbio/bbduk/bbduk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plainFormat(w io.Writer, r *bbduk.Read) error {
	_, err := fmt.Fprintf(w, "%s\t%s\n", r.OutputID(), string(r.Seq))
	return err
}

func decompress(t *testing.T, buf *bytes.Buffer) string {
	t.Helper()
	zr, err := gzip.NewReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	out, err := io.ReadAll(zr)
	require.NoError(t, err)
	return string(out)
}

func TestChannelWriterFlushesInOrderWhenBatchesArriveInOrder(t *testing.T) {
	var buf bytes.Buffer
	w := NewChannelWriter(&buf, plainFormat)
	w.Ordered = true

	w.Submit(0, []*bbduk.Read{{ID: "a", Seq: []byte("AAAA")}})
	w.Submit(1, []*bbduk.Read{{ID: "b", Seq: []byte("CCCC")}})
	require.NoError(t, w.Close())

	assert.Equal(t, "a\tAAAA\nb\tCCCC\n", decompress(t, &buf))
}

func TestChannelWriterReordersOutOfArrivalBatches(t *testing.T) {
	var buf bytes.Buffer
	w := NewChannelWriter(&buf, plainFormat)
	w.Ordered = true

	// Batch 1 arrives before batch 0; it must be held until batch 0
	// shows up, then both flush in id order.
	w.Submit(1, []*bbduk.Read{{ID: "b", Seq: []byte("CCCC")}})
	assert.Equal(t, 1, w.Pending())
	w.Submit(0, []*bbduk.Read{{ID: "a", Seq: []byte("AAAA")}})
	assert.Equal(t, 0, w.Pending())
	require.NoError(t, w.Close())

	assert.Equal(t, "a\tAAAA\nb\tCCCC\n", decompress(t, &buf))
}

func TestChannelWriterUnorderedFlushesImmediately(t *testing.T) {
	var buf bytes.Buffer
	w := NewChannelWriter(&buf, plainFormat)
	w.Ordered = false

	w.Submit(5, []*bbduk.Read{{ID: "b", Seq: []byte("CCCC")}})
	w.Submit(0, []*bbduk.Read{{ID: "a", Seq: []byte("AAAA")}})
	require.NoError(t, w.Close())

	// Arrival order (5 before 0), not id order.
	assert.Equal(t, "b\tCCCC\na\tAAAA\n", decompress(t, &buf))
}
