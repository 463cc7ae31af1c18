package llm

import (
	"bufio"
	"io"
	"strings"
)

// readSSE reads Server-Sent Events from r and calls onData with each data
// payload. Multi-line data fields are joined with newlines per the SSE spec.
// Event names, ids and retry hints are ignored; the providers here only use
// data frames.
func readSSE(r io.Reader, onData func(data string) error) error {
	reader := bufio.NewReader(r)
	var dataBuilder strings.Builder

	flush := func() error {
		if dataBuilder.Len() == 0 {
			return nil
		}
		data := dataBuilder.String()
		dataBuilder.Reset()
		return onData(data)
	}

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return flush()
			}
			return err
		}
		line = strings.TrimRight(line, "\r\n")

		if line == "" {
			if err := flush(); err != nil {
				return err
			}
			continue
		}
		if data, ok := strings.CutPrefix(line, "data:"); ok {
			if dataBuilder.Len() > 0 {
				dataBuilder.WriteString("\n")
			}
			dataBuilder.WriteString(strings.TrimSpace(data))
		}
	}
}
