package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// lineReader - ввод без readline (не терминал, CI, пайп).
type lineReader struct {
	reader *bufio.Reader
	out    io.Writer
	prompt string
}

func newLineReader(in io.Reader, out io.Writer, prompt string) *lineReader {
	return &lineReader{
		reader: bufio.NewReader(in),
		out:    out,
		prompt: prompt,
	}
}

func (p *lineReader) ReadLine(ctx context.Context) (string, error) {
	fmt.Fprint(p.out, p.prompt)

	lineChan := make(chan string, 1)
	errChan := make(chan error, 1)

	go func() {
		line, err := p.reader.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			errChan <- err
			return
		}
		lineChan <- strings.TrimSpace(line)
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case err := <-errChan:
		return "", err
	case line := <-lineChan:
		return line, nil
	}
}
