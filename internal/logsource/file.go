package logsource

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tinytelemetry/lumen/internal/model"
)

// DefaultFileBuffer is the default channel buffer size for file lines.
const DefaultFileBuffer = 50_000

// FileConfig holds tunable parameters for the file source.
type FileConfig struct {
	BufferSize int
	// FromStart reads the whole file instead of following from the end.
	FromStart bool
}

// FileSource follows one log file the way tail -F does: it starts at the
// end, emits appended lines, survives truncation, and re-attaches after
// rotation. The parent directory is watched so a file that does not exist
// yet is picked up on create.
type FileSource struct {
	path   string
	ch     chan model.IngestEnvelope
	cancel context.CancelFunc

	file    *os.File
	reader  *bufio.Reader
	offset  int64
	partial strings.Builder
}

// NewFileSource starts following path. The file itself may be absent; a
// watcher that cannot be created at all is an error.
func NewFileSource(ctx context.Context, path string, conf ...FileConfig) (*FileSource, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("logsource: resolve %s: %w", path, err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("logsource: create file watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("logsource: watch %s: %w", filepath.Dir(abs), err)
	}

	var cfg FileConfig
	if len(conf) > 0 {
		cfg = conf[0]
	}
	bufferSize := cfg.BufferSize
	if bufferSize <= 0 {
		bufferSize = DefaultFileBuffer
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &FileSource{
		path:   abs,
		ch:     make(chan model.IngestEnvelope, bufferSize),
		cancel: cancel,
	}
	s.open(!cfg.FromStart)
	go s.follow(ctx, watcher)
	return s, nil
}

func (s *FileSource) follow(ctx context.Context, watcher *fsnotify.Watcher) {
	defer close(s.ch)
	defer watcher.Close()
	defer s.close()

	// Inotify can drop events under load; the ticker catches up.
	poll := time.NewTicker(time.Second)
	defer poll.Stop()

	s.drain(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if ev.Name != s.path {
				continue
			}
			switch {
			case ev.Op&fsnotify.Create != 0:
				s.close()
				s.open(false)
				s.drain(ctx)
			case ev.Op&fsnotify.Write != 0:
				s.drain(ctx)
			case ev.Op&fsnotify.Remove != 0, ev.Op&fsnotify.Rename != 0:
				s.close()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("logsource: watch %s: %v", s.path, err)
		case <-poll.C:
			if s.file == nil {
				s.open(false)
			}
			s.drain(ctx)
		}
	}
}

// open attaches to the file. atEnd starts at the current tail, the
// rotation/create paths start at offset zero.
func (s *FileSource) open(atEnd bool) {
	f, err := os.Open(s.path)
	if err != nil {
		return
	}
	s.file = f
	s.offset = 0
	if atEnd {
		if pos, err := f.Seek(0, io.SeekEnd); err == nil {
			s.offset = pos
		}
	}
	s.reader = bufio.NewReader(f)
	s.partial.Reset()
}

func (s *FileSource) close() {
	if s.file != nil {
		_ = s.file.Close()
	}
	s.file = nil
	s.reader = nil
}

// drain reads everything appended since the last read, carrying an
// unterminated tail until its newline shows up. A shrinking file means
// truncation; reading restarts from the top.
func (s *FileSource) drain(ctx context.Context) {
	if s.file == nil {
		return
	}
	if info, err := s.file.Stat(); err == nil && info.Size() < s.offset {
		if _, err := s.file.Seek(0, io.SeekStart); err != nil {
			return
		}
		s.offset = 0
		s.reader.Reset(s.file)
		s.partial.Reset()
	}
	for {
		chunk, err := s.reader.ReadString('\n')
		s.offset += int64(len(chunk))
		if err == nil {
			line := s.partial.String() + strings.TrimRight(chunk, "\r\n")
			s.partial.Reset()
			if line != "" {
				select {
				case s.ch <- model.IngestEnvelope{Source: s.Name(), Line: line}:
				case <-ctx.Done():
					return
				}
			}
			continue
		}
		if chunk != "" {
			s.partial.WriteString(chunk)
		}
		return
	}
}

func (s *FileSource) Lines() <-chan model.IngestEnvelope { return s.ch }
func (s *FileSource) Stop()                              { s.cancel() }
func (s *FileSource) Name() string                       { return "file" }
