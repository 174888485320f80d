// Package jsonfile provides the default storage.Storage implementation: a
// single human-readable JSON file that maps every user id to its record.
//
// The file is the only state. Each operation loads it, applies the change
// and, if something changed, writes it back, with the most recently
// created or updated user first.
package jsonfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/aanand-mishra/users-api/internal/config"
	"github.com/aanand-mishra/users-api/internal/storage"
	"github.com/aanand-mishra/users-api/internal/types"
)

const indent = "    "

// Store is the JSON file backend. The mutex serializes whole
// load-modify-save cycles within this process; it does nothing for other
// processes writing the same file.
type Store struct {
	mu            sync.Mutex
	path          string
	failOnCorrupt bool
}

// New returns a Store for cfg.StoragePath. The file itself is created by
// the first write.
func New(cfg *config.Config) (*Store, error) {
	if cfg.StoragePath == "" {
		return nil, errors.New("jsonfile.New: storage path is empty")
	}
	return &Store{
		path:          cfg.StoragePath,
		failOnCorrupt: cfg.FailOnCorrupt,
	}, nil
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

// Load reads the backing file.
//
// A missing file is an empty collection. An unreadable or malformed file
// is also treated as an empty collection and only logged, unless the store
// was configured with FailOnCorrupt, in which case the error wraps
// storage.ErrCorrupt.
func (s *Store) Load() (*storage.Users, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Save writes users to the backing file. If priorityKey is non-empty and
// present in users, that entry is moved to the front first; the others
// keep their relative order. The reordering is applied to users itself.
func (s *Store) Save(users *storage.Users, priorityKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(users, priorityKey)
}

func (s *Store) load() (*storage.Users, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return storage.NewUsers(), nil
	}
	if err == nil {
		users := storage.NewUsers()
		if err = decode(data, users); err == nil {
			return users, nil
		}
	}

	if s.failOnCorrupt {
		return nil, fmt.Errorf("jsonfile.Load: %s: %w: %v", s.path, storage.ErrCorrupt, err)
	}

	slog.Warn("storage file is unreadable, starting from an empty collection",
		slog.String("path", s.path),
		slog.String("error", err.Error()))
	return storage.NewUsers(), nil
}

func (s *Store) save(users *storage.Users, priorityKey string) error {
	if priorityKey != "" {
		if _, ok := users.Get(priorityKey); ok {
			if err := users.MoveToFront(priorityKey); err != nil {
				return fmt.Errorf("jsonfile.Save: move to front: %w", err)
			}
		}
	}

	data, err := encode(users)
	if err != nil {
		return fmt.Errorf("jsonfile.Save: encode: %w", err)
	}

	if err := writeFile(s.path, data); err != nil {
		return fmt.Errorf("jsonfile.Save: %w", err)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// storage.Storage
// ─────────────────────────────────────────────────────────────────────────────

func (s *Store) CreateUser(user types.User) (types.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load()
	if err != nil {
		return types.User{}, fmt.Errorf("CreateUser: %w", err)
	}

	user.ID = uuid.NewString()
	users.Set(user.ID, user)

	if err := s.save(users, user.ID); err != nil {
		return types.User{}, fmt.Errorf("CreateUser: %w", err)
	}
	return user, nil
}

func (s *Store) GetUserByID(id string) (types.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load()
	if err != nil {
		return types.User{}, fmt.Errorf("GetUserByID: %w", err)
	}

	user, ok := users.Get(id)
	if !ok {
		return types.User{}, fmt.Errorf("GetUserByID %s: %w", id, storage.ErrNotFound)
	}
	return user, nil
}

func (s *Store) GetUsers() ([]types.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load()
	if err != nil {
		return nil, fmt.Errorf("GetUsers: %w", err)
	}
	return storage.Values(users), nil
}

func (s *Store) UpdateUserByID(id string, user types.User) (types.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load()
	if err != nil {
		return types.User{}, fmt.Errorf("UpdateUserByID: %w", err)
	}

	if _, ok := users.Get(id); !ok {
		return types.User{}, fmt.Errorf("UpdateUserByID %s: %w", id, storage.ErrNotFound)
	}

	user.ID = id
	users.Set(id, user)

	if err := s.save(users, id); err != nil {
		return types.User{}, fmt.Errorf("UpdateUserByID: %w", err)
	}
	return user, nil
}

func (s *Store) DeleteUserByID(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load()
	if err != nil {
		return fmt.Errorf("DeleteUserByID: %w", err)
	}

	if _, ok := users.Delete(id); !ok {
		return fmt.Errorf("DeleteUserByID %s: %w", id, storage.ErrNotFound)
	}

	if err := s.save(users, ""); err != nil {
		return fmt.Errorf("DeleteUserByID: %w", err)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// File format
// ─────────────────────────────────────────────────────────────────────────────

// decode fills users from a JSON object, keeping the key order of the
// file. A record whose id disagrees with its key is repaired to the key.
// A null record or one without a valid gender makes the whole file
// corrupt.
func decode(data []byte, users *storage.Users) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return errors.New("expected a JSON object")
	}

	// json.Unmarshal checks the syntax of the whole document before
	// handing it to the ordered map's UnmarshalJSON.
	if err := json.Unmarshal(data, users); err != nil {
		return err
	}

	for pair := users.Oldest(); pair != nil; pair = pair.Next() {
		if !pair.Value.Gender.Valid() {
			return fmt.Errorf("user %s: missing or invalid gender %q", pair.Key, pair.Value.Gender)
		}
		pair.Value.ID = pair.Key
	}
	return nil
}

// encode writes users as an indented JSON object in collection order.
// encoding/json sorts map keys, so the object is assembled by hand from
// individually encoded keys and values.
func encode(users *storage.Users) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for pair := users.Oldest(); pair != nil; pair = pair.Next() {
		if pair != users.Oldest() {
			buf.WriteByte(',')
		}
		if err := writeValue(&buf, pair.Key); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := writeValue(&buf, pair.Value); err != nil {
			return nil, fmt.Errorf("user %s: %w", pair.Key, err)
		}
	}
	buf.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", indent); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// writeValue encodes v without HTML escaping. encoding/json never escapes
// non-ASCII text, so names like "Zoë" are written as they are.
func writeValue(buf *bytes.Buffer, v any) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	// Encode terminates every value with a newline.
	buf.Truncate(buf.Len() - 1)
	return nil
}

// writeFile replaces path with data through a temporary file in the same
// directory, so a reader sees either the old or the new content.
func writeFile(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
