package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/olgkv/tasklist/internal/domain"
)

// JSONRepository stores the whole task set as a pretty-printed JSON array.
// Writes hold an exclusive lock on <path>.lock for the duration of the write only.
// The write is not atomic against a crash midway.
type JSONRepository struct {
	path string
	lock *flock.Flock
}

func NewJSONRepository(path string) *JSONRepository {
	return &JSONRepository{path: path, lock: flock.New(path + ".lock")}
}

func (r *JSONRepository) Path() string {
	return r.path
}

// Load returns the stored tasks in file order. A missing file is an empty set;
// a file that cannot be read or decoded is a DataFormat error.
func (r *JSONRepository) Load() ([]*domain.Task, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, domain.DataFormat(err)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, domain.DataFormat(fmt.Errorf("%s: file is blank", r.path))
	}
	if data[0] != '[' {
		return nil, domain.DataFormat(fmt.Errorf("%s: top-level value is not an array", r.path))
	}

	var tasks []*domain.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, domain.DataFormat(err)
	}
	for i, t := range tasks {
		if t == nil {
			return nil, domain.DataFormat(fmt.Errorf("record %d is null", i))
		}
		// the next id must stay representable
		if t.ID == math.MaxInt {
			return nil, domain.DataFormat(fmt.Errorf("record %d: id %d out of range", i, t.ID))
		}
		if _, err := domain.ParseStatus(string(t.Status)); err != nil {
			return nil, domain.DataFormat(fmt.Errorf("record %d: unknown status %q", i, t.Status))
		}
	}
	return tasks, nil
}

// Save rewrites the file with the given tasks.
func (r *JSONRepository) Save(tasks []*domain.Task) error {
	if tasks == nil {
		tasks = []*domain.Task{}
	}
	data, err := json.MarshalIndent(tasks, "", "    ")
	if err != nil {
		return domain.StorageWrite(err)
	}

	if dir := filepath.Dir(r.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return domain.StorageWrite(err)
		}
	}

	if err := r.lock.Lock(); err != nil {
		return domain.StorageWrite(fmt.Errorf("lock %s: %w", r.path, err))
	}
	defer func() { _ = r.lock.Unlock() }()

	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		return domain.StorageWrite(err)
	}
	return nil
}
