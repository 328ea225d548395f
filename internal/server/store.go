package server

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abid8042/chessnetviz/pkg/errors"
	"github.com/abid8042/chessnetviz/pkg/pipeline"
)

// dirNamespace derives stable dataset ids from file paths, so a dataset
// loaded from the data directory keeps its id across restarts and reloads.
var dirNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("chessnetviz:datadir"))

// entry is one loaded dataset.
type entry struct {
	ID     string
	Path   string // empty for uploads
	Source *pipeline.Source
	Loaded time.Time
}

// store holds the loaded datasets by id.
type store struct {
	mu      sync.RWMutex
	entries map[string]*entry
	now     func() time.Time
}

func newStore() *store {
	return &store{entries: make(map[string]*entry), now: time.Now}
}

// pathID returns the stable id of a dataset file.
func pathID(path string) string {
	return uuid.NewSHA1(dirNamespace, []byte(path)).String()
}

// add stores an uploaded dataset under a fresh random id.
func (s *store) add(src *pipeline.Source) *entry {
	e := &entry{ID: uuid.NewString(), Source: src}
	s.put(e)
	return e
}

// addFile stores or replaces the dataset loaded from path.
func (s *store) addFile(path string, src *pipeline.Source) *entry {
	e := &entry{ID: pathID(path), Path: path, Source: src}
	s.put(e)
	return e
}

func (s *store) put(e *entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.Loaded = s.now()
	s.entries[e.ID] = e
}

// get returns the dataset with id or a NOT_FOUND error.
func (s *store) get(id string) (*entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.entries[id]; ok {
		return e, nil
	}
	return nil, errors.New(errors.ErrCodeNotFound, "dataset %s not found", id)
}

// remove deletes id and reports whether it existed.
func (s *store) remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[id]
	delete(s.entries, id)
	return ok
}

// list returns every dataset ordered by name, then id.
func (s *store) list() []*entry {
	s.mu.RLock()
	out := make([]*entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Source.Name != out[j].Source.Name {
			return out[i].Source.Name < out[j].Source.Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}
