package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	applog "cafedesk/internal/log"
)

// StorageKey is the fixed name the token is kept under in durable storage.
const StorageKey = "adminToken"

// Persister is the durable side of the session. Read reports ok=false when
// nothing is stored.
type Persister interface {
	Read() (token string, ok bool, err error)
	Write(token string) error
	Clear() error
}

// MemoryPersister keeps the token for the life of the process only.
type MemoryPersister struct {
	mu    sync.Mutex
	token string
	set   bool
}

func (m *MemoryPersister) Read() (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, m.set, nil
}

func (m *MemoryPersister) Write(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token, m.set = token, true
	return nil
}

func (m *MemoryPersister) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token, m.set = "", false
	return nil
}

// FilePersister stores a small JSON object keyed by StorageKey, readable by
// the owner only.
type FilePersister struct {
	Path string
	mu   sync.Mutex
}

func NewFilePersister(path string) *FilePersister {
	return &FilePersister{Path: path}
}

func (f *FilePersister) load() (map[string]string, error) {
	b, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	kv := map[string]string{}
	if len(b) == 0 {
		return kv, nil
	}
	if err := json.Unmarshal(b, &kv); err != nil {
		return nil, fmt.Errorf("decode session file: %w", err)
	}
	return kv, nil
}

func (f *FilePersister) save(kv map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	b, err := json.MarshalIndent(kv, "", "  ")
	if err != nil {
		return err
	}
	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return os.Rename(tmp, f.Path)
}

// replacing records an unreadable file that is about to be overwritten,
// along with any other keys it held.
func (f *FilePersister) replacing(err error) {
	applog.Error(context.Background(), "session.file.replace_unreadable", err, map[string]any{"path": f.Path})
}

func (f *FilePersister) Read() (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kv, err := f.load()
	if err != nil {
		return "", false, err
	}
	tok, ok := kv[StorageKey]
	return tok, ok, nil
}

func (f *FilePersister) Write(token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kv, err := f.load()
	if err != nil {
		f.replacing(err)
		kv = map[string]string{}
	}
	kv[StorageKey] = token
	return f.save(kv)
}

func (f *FilePersister) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kv, err := f.load()
	if err != nil {
		f.replacing(err)
		kv = map[string]string{}
	}
	delete(kv, StorageKey)
	return f.save(kv)
}
