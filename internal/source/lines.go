package source

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

// ReadLines calls fn with each non-blank line of r, trailing newline removed.
// The slice passed to fn is reused between calls.
//
// Lines longer than maxLineSize are discarded without being buffered and
// counted in the returned total; reading continues with the next line.
func ReadLines(r io.Reader, fn func(line []byte)) (oversized int, err error) {
	br := bufio.NewReaderSize(r, 256*1024)

	var (
		buf      []byte
		dropping bool
	)
	for {
		chunk, rerr := br.ReadSlice('\n')
		switch {
		case dropping:
		case len(buf)+len(chunk) > maxLineSize:
			dropping = true
			buf = buf[:0]
		default:
			buf = append(buf, chunk...)
		}

		if errors.Is(rerr, bufio.ErrBufferFull) {
			continue
		}

		if dropping {
			oversized++
		} else if line := bytes.TrimRight(buf, "\r\n"); len(bytes.TrimSpace(line)) > 0 {
			fn(line)
		}
		buf = buf[:0]
		dropping = false

		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				return oversized, nil
			}
			return oversized, rerr
		}
	}
}
