package pipeline

import (
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RunRepository interface {
	Create(run *Run) error
	Update(run *Run) error
	GetByID(id uuid.UUID) (*Run, error)
	ListRecent(limit int) ([]*Run, error)
}

type runRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) RunRepository {
	return &runRepository{db: db}
}

func (r *runRepository) Create(run *Run) error {
	return r.db.Create(run).Error
}

func (r *runRepository) Update(run *Run) error {
	return r.db.Save(run).Error
}

func (r *runRepository) GetByID(id uuid.UUID) (*Run, error) {
	var run Run
	if err := r.db.First(&run, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &run, nil
}

func (r *runRepository) ListRecent(limit int) ([]*Run, error) {
	var runs []*Run
	q := r.db.Order("started_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

// memoryRepository backs run history when no database is configured.
type memoryRepository struct {
	mu   sync.RWMutex
	runs map[uuid.UUID]Run
}

func NewMemoryRepository() RunRepository {
	return &memoryRepository{runs: map[uuid.UUID]Run{}}
}

func (r *memoryRepository) Create(run *Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.runs[run.ID]; exists {
		return gorm.ErrDuplicatedKey
	}
	r.runs[run.ID] = *run
	return nil
}

func (r *memoryRepository) Update(run *Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[run.ID] = *run
	return nil
}

func (r *memoryRepository) GetByID(id uuid.UUID) (*Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.runs[id]
	if !ok {
		return nil, nil
	}
	return &run, nil
}

func (r *memoryRepository) ListRecent(limit int) ([]*Run, error) {
	r.mu.RLock()
	out := make([]*Run, 0, len(r.runs))
	for _, run := range r.runs {
		run := run
		out = append(out, &run)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
