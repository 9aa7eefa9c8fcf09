package journal

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sync"
)

// FileSink appends decisions as newline-delimited JSON.
type FileSink struct {
	file   *os.File
	writer *bufio.Writer
	mu     sync.Mutex
}

func NewFileSink(path string) (*FileSink, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &FileSink{
		file:   file,
		writer: bufio.NewWriter(file),
	}, nil
}

func (f *FileSink) Append(_ context.Context, decision Decision) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	payload, err := decision.Marshal()
	if err != nil {
		return fmt.Errorf("marshal decision: %w", err)
	}
	if _, err := f.writer.Write(append(payload, '\n')); err != nil {
		return fmt.Errorf("write decision: %w", err)
	}
	if err := f.writer.Flush(); err != nil {
		return fmt.Errorf("flush decision log: %w", err)
	}
	return nil
}

func (f *FileSink) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.writer.Flush(); err != nil {
		_ = f.file.Close()
		return err
	}
	return f.file.Close()
}
