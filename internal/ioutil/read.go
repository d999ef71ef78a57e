// Package ioutil has small I/O helpers shared by the outbound HTTP
// clients.
package ioutil

import (
	"fmt"
	"io"
)

// ReadLimited drains at most limit bytes of r into a string. A failed
// read yields a placeholder rather than an error: the result only ever
// lands in log lines and error messages, where a partial body still
// beats nothing.
func ReadLimited(r io.Reader, limit int64) string {
	body, err := io.ReadAll(io.LimitReader(r, limit))
	if err != nil {
		return fmt.Sprintf("<unreadable: %v>", err)
	}
	return string(body)
}
