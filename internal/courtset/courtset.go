// Package courtset holds the in-memory court set: the last fetched courts
// keyed by id. A Set has a single owner and no internal locking.
package courtset

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/marcus/courts/internal/models"
)

// Store persists a court set between runs.
type Store interface {
	LoadCourts() ([]models.Court, error)
	ReplaceCourts(courts []models.Court) error
	DeleteCourt(id int) error
}

// Set is an unordered collection of stored courts, unique by id.
type Set struct {
	courts map[int]models.Court
}

// New returns a set holding courts (see Replace)
func New(courts []models.Court) *Set {
	s := &Set{}
	s.Replace(courts)
	return s
}

// Replace discards the current contents and stores copies of courts. Drafts
// are ignored; a repeated id keeps the last occurrence.
func (s *Set) Replace(courts []models.Court) {
	next := make(map[int]models.Court, len(courts))
	for _, c := range courts {
		if c.ID == nil {
			continue
		}
		next[*c.ID] = c.Clone()
	}
	s.courts = next
}

// Get returns a copy of the court with id
func (s *Set) Get(id int) (models.Court, bool) {
	c, ok := s.courts[id]
	if !ok {
		return models.Court{}, false
	}
	return c.Clone(), true
}

// Put inserts or replaces one court. Drafts are ignored.
func (s *Set) Put(c models.Court) {
	if c.ID == nil {
		return
	}
	if s.courts == nil {
		s.courts = map[int]models.Court{}
	}
	s.courts[*c.ID] = c.Clone()
}

// Evict removes id and reports whether it was present
func (s *Set) Evict(id int) bool {
	if _, ok := s.courts[id]; !ok {
		return false
	}
	delete(s.courts, id)
	return true
}

// Len returns the number of courts
func (s *Set) Len() int {
	return len(s.courts)
}

// IDs returns the ids in ascending order
func (s *Set) IDs() []int {
	ids := make([]int, 0, len(s.courts))
	for id := range s.courts {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Sorted returns copies of every court ordered by name, then id. The order is
// for display only.
func (s *Set) Sorted() []models.Court {
	out := make([]models.Court, 0, len(s.courts))
	for _, c := range s.courts {
		out = append(out, c.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if a != b {
			return a < b
		}
		return out[i].IDValue() < out[j].IDValue()
	})
	return out
}

// courtSource adapts courts for the fuzzy matcher. Each court is searched as
// "name district terrain".
type courtSource []models.Court

func (s courtSource) String(i int) string {
	return s[i].Name + " " + s[i].District + " " + s[i].Terrain
}

func (s courtSource) Len() int {
	return len(s)
}

// Filter returns courts matching query, best match first. An empty query
// returns the Sorted set.
func (s *Set) Filter(query string) []models.Court {
	return FilterCourts(s.Sorted(), query)
}

// FilterCourts ranks courts against query with fzf-style matching.
func FilterCourts(courts []models.Court, query string) []models.Court {
	query = strings.TrimSpace(query)
	if query == "" {
		return courts
	}
	matches := fuzzy.FindFrom(query, courtSource(courts))
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	out := make([]models.Court, len(matches))
	for i, m := range matches {
		out[i] = courts[m.Index]
	}
	return out
}
