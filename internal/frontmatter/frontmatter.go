// Package frontmatter splits a YAML front-matter block from a document body.
package frontmatter

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

var delimiter = []byte("---")

// Parse splits data into front-matter fields and the remaining body. The
// front-matter block is delimited by "---" lines at the very top of the
// document; a document without one yields nil fields and the body unchanged.
func Parse(data []byte) (map[string]any, []byte, error) {
	rest, ok := trimOpeningDelimiter(data)
	if !ok {
		return nil, data, nil
	}

	end := findClosingDelimiter(rest)
	if end < 0 {
		return nil, nil, fmt.Errorf("frontmatter: unterminated block")
	}

	block := rest[:end]
	body := rest[end:]
	if idx := bytes.IndexByte(body, '\n'); idx >= 0 {
		body = body[idx+1:]
	} else {
		body = nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal(block, &fields); err != nil {
		return nil, nil, fmt.Errorf("frontmatter: parse block: %w", err)
	}

	return fields, body, nil
}

func trimOpeningDelimiter(data []byte) ([]byte, bool) {
	if !bytes.HasPrefix(data, delimiter) {
		return nil, false
	}
	rest := data[len(delimiter):]
	rest = bytes.TrimPrefix(rest, []byte("\r"))
	if !bytes.HasPrefix(rest, []byte("\n")) {
		return nil, false
	}
	return rest[1:], true
}

// findClosingDelimiter returns the offset of the line starting the closing
// "---", or -1 when the block never closes.
func findClosingDelimiter(data []byte) int {
	offset := 0
	for offset <= len(data) {
		lineEnd := bytes.IndexByte(data[offset:], '\n')
		var line []byte
		if lineEnd < 0 {
			line = data[offset:]
		} else {
			line = data[offset : offset+lineEnd]
		}
		if bytes.Equal(bytes.TrimRight(line, "\r"), delimiter) {
			return offset
		}
		if lineEnd < 0 {
			break
		}
		offset += lineEnd + 1
	}
	return -1
}
