package wire

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/MeKo-Tech/qvm-pdf-sanitize/internal/document"
)

// TestDimRoundTrip_Property pins down WriteDim/ReadDim as an exact round
// trip over every in-bounds width/height, not just the one fixed example
// in wire_test.go.
func TestDimRoundTrip_Property(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("WriteDim then ReadDim reproduces width and height", prop.ForAll(
		func(width, height int) bool {
			var buf bytes.Buffer
			if err := WriteDim(&buf, width, height); err != nil {
				return false
			}

			dim, err := ReadDim(bufio.NewReader(&buf))
			if err != nil {
				return false
			}
			return dim.Width == width && dim.Height == height && dim.Depth == document.Depth
		},
		gen.IntRange(1, document.MaxImgWidth),
		gen.IntRange(1, document.MaxImgHeight),
	))

	properties.TestingRun(t)
}

// TestPixelsRoundTrip_Property checks WritePixels/ReadPixels reproduce
// arbitrary 768-byte payloads byte-for-byte, not just the one fixed
// 300-byte buffer in wire_test.go.
func TestPixelsRoundTrip_Property(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("WritePixels then ReadPixels reproduces the payload exactly", prop.ForAll(
		func(payload []byte) bool {
			var buf bytes.Buffer
			if err := WritePixels(&buf, payload); err != nil {
				return false
			}

			got, err := ReadPixels(&buf, len(payload))
			if err != nil {
				return false
			}
			return bytes.Equal(got, payload)
		},
		gen.SliceOfN(768, gen.IntRange(0, 255)).Map(func(ints []int) []byte {
			out := make([]byte, len(ints))
			for i, v := range ints {
				out[i] = byte(v)
			}
			return out
		}),
	))

	properties.TestingRun(t)
}

// TestPageCountRoundTrip_Property checks WritePageCount/ReadPageCount
// reproduce every in-bounds page count exactly.
func TestPageCountRoundTrip_Property(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("WritePageCount then ReadPageCount reproduces n", prop.ForAll(
		func(n int) bool {
			var buf bytes.Buffer
			if err := WritePageCount(&buf, n); err != nil {
				return false
			}

			got, err := ReadPageCount(bufio.NewReader(&buf))
			if err != nil {
				return false
			}
			return got == n
		},
		gen.IntRange(1, document.MaxPages),
	))

	properties.TestingRun(t)
}
