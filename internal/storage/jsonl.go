package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"volScope/internal/model"
)

// JsonlStorage appends estimates to a JSONL history file.
type JsonlStorage struct {
	path string
	mu   sync.Mutex
}

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path}
}

// PutEstimates appends estimates as JSON lines.
func (s *JsonlStorage) PutEstimates(ctx context.Context, estimates []model.Estimate) error {
	if len(estimates) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, estimate := range estimates {
		line, err := json.Marshal(estimate)
		if err != nil {
			return fmt.Errorf("marshal estimate: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write estimate: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	return nil
}

// ReadEstimates loads every estimate recorded in a JSONL history file.
func ReadEstimates(path string) ([]model.Estimate, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open history file: %w", err)
	}
	defer file.Close()

	estimates := make([]model.Estimate, 0)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var estimate model.Estimate
		if err := json.Unmarshal(scanner.Bytes(), &estimate); err != nil {
			return nil, fmt.Errorf("decode history line %d: %w", line, err)
		}
		estimates = append(estimates, estimate)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read history file: %w", err)
	}
	return estimates, nil
}
