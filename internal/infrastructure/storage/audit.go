package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/nutriweek/backend/internal/domain"
)

// MemoryAuditLog is an in-process AuditLog for development and tests.
type MemoryAuditLog struct {
	mu      sync.RWMutex
	entries map[string][]domain.AuditEntry
}

func NewMemoryAuditLog() *MemoryAuditLog {
	return &MemoryAuditLog{entries: make(map[string][]domain.AuditEntry)}
}

func (l *MemoryAuditLog) Append(_ context.Context, entry domain.AuditEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[entry.ID] = append(l.entries[entry.ID], entry)
	return nil
}

func (l *MemoryAuditLog) List(_ context.Context, id string) ([]domain.AuditEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]domain.AuditEntry(nil), l.entries[id]...), nil
}

// FilesystemAuditLog appends one JSON line per access to <dir>/<id>.log.
// Lines are never rewritten, only appended.
type FilesystemAuditLog struct {
	dir string
	mu  sync.Mutex
}

func NewFilesystemAuditLog(dir string) (*FilesystemAuditLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create audit dir: %w", err)
	}
	return &FilesystemAuditLog{dir: dir}, nil
}

func (l *FilesystemAuditLog) path(id string) string {
	return filepath.Join(l.dir, id+".log")
}

func (l *FilesystemAuditLog) Append(_ context.Context, entry domain.AuditEntry) error {
	if err := validateKey(entry.ID); err != nil {
		return err
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode audit entry: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path(entry.ID), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

func (l *FilesystemAuditLog) List(_ context.Context, id string) ([]domain.AuditEntry, error) {
	if err := validateKey(id); err != nil {
		return nil, err
	}

	f, err := os.Open(l.path(id))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	var entries []domain.AuditEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var entry domain.AuditEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			return nil, fmt.Errorf("decode audit entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}
	return entries, nil
}
