package capture

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/segmentio/ksuid"
)

const sessionExt = ".cap"

// Session is an open session file identified by a KSUID.
type Session struct {
	ID ksuid.KSUID
	*Writer
}

// SessionInfo describes a session file on disk.
type SessionInfo struct {
	ID   ksuid.KSUID `json:"id"`
	Path string      `json:"path"`
	Size int64       `json:"size"`
}

// Created returns the creation time embedded in the session id.
func (s SessionInfo) Created() time.Time {
	return s.ID.Time()
}

// Store manages the session files in one directory.
type Store struct {
	config StoreConfig
}

// NewStore creates the capture directory if needed.
func NewStore(config StoreConfig) (*Store, error) {
	if config.Dir == "" {
		return nil, fmt.Errorf("capture directory must not be empty")
	}
	if err := os.MkdirAll(config.Dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create capture directory: %w", err)
	}
	return &Store{config: config}, nil
}

// Dir returns the capture directory.
func (s *Store) Dir() string {
	return s.config.Dir
}

// Create starts a new session.
func (s *Store) Create() (*Session, error) {
	return s.openSession(ksuid.New())
}

// Resume reopens an existing session for appending.
func (s *Store) Resume(id string) (*Session, error) {
	sid, err := ParseSessionID(id)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(s.path(sid)); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s.openSession(sid)
}

func (s *Store) openSession(id ksuid.KSUID) (*Session, error) {
	w, err := NewWriter(WriterConfig{
		FilePath:      s.path(id),
		FsyncInterval: s.config.FsyncInterval,
		BufferSize:    s.config.BufferSize,
		Records:       s.config.Records,
	})
	if err != nil {
		return nil, err
	}
	return &Session{ID: id, Writer: w}, nil
}

// Open returns a reader positioned at the start of a session.
func (s *Store) Open(id string) (*Reader, error) {
	sid, err := ParseSessionID(id)
	if err != nil {
		return nil, err
	}
	r, err := NewReader(ReaderConfig{FilePath: s.path(sid), Records: s.config.Records})
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return r, err
}

// Remove deletes a session file. Writers still open on it keep working on
// the unlinked file until closed.
func (s *Store) Remove(id string) error {
	sid, err := ParseSessionID(id)
	if err != nil {
		return err
	}
	if err := os.Remove(s.path(sid)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
		}
		return fmt.Errorf("failed to remove session: %w", err)
	}
	return nil
}

// Sessions lists the sessions in creation order. Files whose names are not
// session ids are ignored.
func (s *Store) Sessions() ([]SessionInfo, error) {
	entries, err := os.ReadDir(s.config.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list capture directory: %w", err)
	}

	var sessions []SessionInfo
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, sessionExt) {
			continue
		}
		id, err := ksuid.Parse(strings.TrimSuffix(name, sessionExt))
		if err != nil {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, SessionInfo{
			ID:   id,
			Path: filepath.Join(s.config.Dir, name),
			Size: info.Size(),
		})
	}

	sort.Slice(sessions, func(i, j int) bool {
		return ksuid.Compare(sessions[i].ID, sessions[j].ID) < 0
	})
	return sessions, nil
}

func (s *Store) path(id ksuid.KSUID) string {
	return filepath.Join(s.config.Dir, id.String()+sessionExt)
}

// ParseSessionID parses the string form of a session id.
func ParseSessionID(id string) (ksuid.KSUID, error) {
	sid, err := ksuid.Parse(id)
	if err != nil {
		return ksuid.Nil, fmt.Errorf("invalid session id %q: %w", id, err)
	}
	return sid, nil
}
