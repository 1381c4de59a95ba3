// Package history is the append-only log of monitored-channel messages.
// Records back the author-analysis artifacts moderators can request; the
// store is a flat JSONL file, not a database.
package history

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/disgoorg/snowflake/v2"
)

// Record is one observed message.
type Record struct {
	MessageID  snowflake.ID   `json:"message_id"`
	ChannelID  snowflake.ID   `json:"channel_id"`
	GuildID    snowflake.ID   `json:"guild_id"`
	AuthorID   snowflake.ID   `json:"author_id"`
	AuthorName string         `json:"author_name"`
	Content    string         `json:"content"`
	Timestamp  time.Time      `json:"timestamp"`
	Mentions   []snowflake.ID `json:"mentions,omitempty"`
}

// Log stores message records and serves per-author reads.
type Log interface {
	Append(record *Record) error
	QueryByAuthor(authorID snowflake.ID) ([]*Record, error)
}

// FileLog is a Log backed by a single append-only JSONL file. Appends are
// serialized under a mutex so concurrent writers never interleave partial
// records.
type FileLog struct {
	mu   sync.Mutex
	path string
}

// NewFileLog creates the log file's directory if needed and returns a log
// writing to the given path.
func NewFileLog(path string) (*FileLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	return &FileLog{path: path}, nil
}

// Append writes one record as a single JSON line.
func (l *FileLog) Append(record *Record) error {
	line, err := sonic.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal history record: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	file, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open history log: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to append history record: %w", err)
	}

	return nil
}

// QueryByAuthor returns every record written by the given author, in append
// order. A missing log file means no history yet, not an error. Lines that
// fail to parse (truncated by a crash mid-append) are skipped.
func (l *FileLog) QueryByAuthor(authorID snowflake.ID) ([]*Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	file, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to open history log: %w", err)
	}
	defer file.Close()

	var records []*Record

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		var record Record
		if err := sonic.Unmarshal(scanner.Bytes(), &record); err != nil {
			continue
		}

		if record.AuthorID == authorID {
			records = append(records, &record)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history log: %w", err)
	}

	return records, nil
}
