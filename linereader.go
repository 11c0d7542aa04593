package canparser

import (
	"bufio"
	"io"
)

// ReadLines scans r for non-empty lines and returns them in order. It is
// the one place in this package allowed to block on I/O (per the
// concurrency model: decode workers never touch the filesystem, only the
// line stream that feeds them does).
func ReadLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lines := make([]string, 0)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
