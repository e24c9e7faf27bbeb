package storage

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/olgkv/tasklist/internal/domain"
)

type TaskRepository interface {
	Load() ([]*domain.Task, error)
	Save(tasks []*domain.Task) error
}

// FileStorage keeps no state between calls: every operation reads the whole
// set from the repository and mutations write the whole set back.
//
// mu serializes read-modify-write within this process. Other processes
// sharing the file are only excluded during the write itself, so two of them
// can still read the same snapshot and the later write wins.
type FileStorage struct {
	mu   sync.Mutex
	repo TaskRepository
}

func NewFileStorage(repo TaskRepository) *FileStorage {
	return &FileStorage{repo: repo}
}

func (s *FileStorage) List(ctx context.Context) ([]*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.repo.Load()
}

func (s *FileStorage) Get(ctx context.Context, id int) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.repo.Load()
	if err != nil {
		return nil, err
	}
	if i := indexOf(list, id); i >= 0 {
		return list[i], nil
	}
	return nil, domain.NotFound(id)
}

func (s *FileStorage) Create(ctx context.Context, name string, status domain.Status, created time.Time) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.repo.Load()
	if err != nil {
		return nil, err
	}

	t := &domain.Task{
		ID:           domain.NextID(list),
		Name:         name,
		Status:       status,
		CreationDate: created,
	}
	list = append(list, t)
	if err := s.repo.Save(list); err != nil {
		return nil, err
	}
	return domain.CopyTask(t), nil
}

func (s *FileStorage) Rename(ctx context.Context, id int, name string) error {
	return s.update(id, func(t *domain.Task) { t.Name = name })
}

func (s *FileStorage) UpdateStatus(ctx context.Context, id int, status domain.Status) error {
	return s.update(id, func(t *domain.Task) { t.Status = status })
}

func (s *FileStorage) Delete(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.repo.Load()
	if err != nil {
		return err
	}
	i := indexOf(list, id)
	if i < 0 {
		return domain.NotFound(id)
	}
	return s.repo.Save(slices.Delete(list, i, i+1))
}

func (s *FileStorage) update(id int, fn func(t *domain.Task)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.repo.Load()
	if err != nil {
		return err
	}
	i := indexOf(list, id)
	if i < 0 {
		return domain.NotFound(id)
	}
	fn(list[i])
	return s.repo.Save(list)
}

func indexOf(list []*domain.Task, id int) int {
	return slices.IndexFunc(list, func(t *domain.Task) bool { return t.ID == id })
}
