// Package wire implements the line-terminated ASCII integer and
// length-prefixed binary framing used between the sanitizer client and
// server (spec §4.1, §6). It is grounded directly in the reference
// implementation's send/recv_b/recvline helpers
// (qubespdfconverter/{client,server}.py): no escaping, no multiplexing,
// strictly half-duplex per direction.
package wire

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/qvm-pdf-sanitize/internal/document"
	"github.com/MeKo-Tech/qvm-pdf-sanitize/internal/sanitizeerr"
)

// WriteDocument copies the entirety of r to w. The caller is responsible
// for closing w's underlying write side afterward — document upload has no
// length prefix, so the peer only knows it is done when it sees EOF.
func WriteDocument(w io.Writer, r io.Reader) error {
	if _, err := io.Copy(w, r); err != nil {
		return sanitizeerr.New(sanitizeerr.TransportBroken, "", 0, fmt.Errorf("write document: %w", err))
	}
	return nil
}

// WritePageCount writes n as a single ASCII-decimal line.
func WritePageCount(w io.Writer, n int) error {
	if _, err := fmt.Fprintf(w, "%d\n", n); err != nil {
		return sanitizeerr.New(sanitizeerr.TransportBroken, "", 0, fmt.Errorf("write page count: %w", err))
	}
	return nil
}

// ReadPageCount reads one ASCII-decimal line and enforces the pagecount
// invariant (spec §3: 1 ≤ p ≤ MAX_PAGES) before returning. A malformed
// line, a non-integer, or a violation of the bound is reported as a
// sanitizeerr.PageError — callers never see an unchecked page count. A
// failed read (the server closed its stream before sending a count) is
// reported as a sanitizeerr.TransportBroken.
func ReadPageCount(r *bufio.Reader) (int, error) {
	line, err := readLine(r)
	if err != nil {
		return 0, sanitizeerr.New(sanitizeerr.TransportBroken, "", 0, fmt.Errorf("read page count: %w", err))
	}

	n, err := strconv.Atoi(line)
	if err != nil {
		return 0, sanitizeerr.New(sanitizeerr.PageError, "", 0, fmt.Errorf("invalid page count %q: %w", line, err))
	}

	if n < 1 || n > document.MaxPages {
		return 0, sanitizeerr.New(sanitizeerr.PageError, "", 0,
			fmt.Errorf("page count %d out of range [1,%d]", n, document.MaxPages))
	}

	return n, nil
}

// WriteDim writes the "<width> <height>\n" line for one page.
func WriteDim(w io.Writer, width, height int) error {
	if _, err := fmt.Fprintf(w, "%d %d\n", width, height); err != nil {
		return sanitizeerr.New(sanitizeerr.TransportBroken, "", 0, fmt.Errorf("write dimensions: %w", err))
	}
	return nil
}

// ReadDim reads and validates one page's "<width> <height>\n" line,
// assuming depth is always 8 (the only depth the protocol carries) per
// spec §3. It enforces the dimensions invariant before returning: callers
// must never see a Dimensions value that could drive an unbounded
// allocation or external process invocation.
func ReadDim(r *bufio.Reader) (document.Dimensions, error) {
	line, err := readLine(r)
	if err != nil {
		return document.Dimensions{}, sanitizeerr.New(sanitizeerr.ReceiveError, "", 0, fmt.Errorf("read dimensions: %w", err))
	}

	parts := strings.SplitN(line, " ", 2)
	if len(parts) != 2 {
		return document.Dimensions{}, sanitizeerr.New(sanitizeerr.ReceiveError, "", 0,
			fmt.Errorf("malformed dimension line %q", line))
	}

	width, errW := strconv.Atoi(parts[0])
	height, errH := strconv.Atoi(parts[1])
	if errW != nil || errH != nil {
		return document.Dimensions{}, sanitizeerr.New(sanitizeerr.ReceiveError, "", 0,
			fmt.Errorf("non-integer dimensions %q", line))
	}

	dim := document.Dimensions{Width: width, Height: height, Depth: document.Depth}
	if err := dim.Validate(); err != nil {
		return document.Dimensions{}, err
	}

	return dim, nil
}

// WritePixels writes buf verbatim; buf must already be exactly
// width*height*3 bytes.
func WritePixels(w io.Writer, buf []byte) error {
	if _, err := w.Write(buf); err != nil {
		return sanitizeerr.New(sanitizeerr.TransportBroken, "", 0, fmt.Errorf("write pixels: %w", err))
	}
	return nil
}

// ReadPixels reads exactly size bytes from r. A short read (including
// immediate EOF) is reported as a sanitizeerr.ReceiveError rather than
// handing the caller a partially filled, misleadingly-sized buffer.
func ReadPixels(r io.Reader, size int) ([]byte, error) {
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, sanitizeerr.New(sanitizeerr.ReceiveError, "", 0, fmt.Errorf("read pixels: %w", err))
	}
	return buf, nil
}

// readLine reads one '\n'-terminated line and strips the trailing
// newline (and a tolerated '\r' for callers running under environments
// that translate line endings). EOF with no data read is propagated
// as-is so callers can distinguish "clean EOF" from "partial line".
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		if err == io.EOF && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
