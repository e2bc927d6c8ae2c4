package courtset

import (
	"reflect"
	"testing"

	"github.com/marcus/courts/internal/models"
)

func c(id int, name, district string) models.Court {
	return models.Court{ID: models.IntID(id), Name: name, District: district, Terrain: "Asphalt"}
}

func TestReplaceIsWholesale(t *testing.T) {
	s := New([]models.Court{c(1, "a", ""), c(2, "b", ""), c(3, "c", "")})
	s.Replace([]models.Court{c(2, "b", ""), c(4, "d", "")})

	if got := s.IDs(); !reflect.DeepEqual(got, []int{2, 4}) {
		t.Errorf("IDs = %v, want [2 4]", got)
	}
}

func TestReplaceSkipsDraftsAndDedupes(t *testing.T) {
	draft := c(0, "draft", "")
	draft.ID = nil
	s := New([]models.Court{draft, c(5, "first", ""), c(5, "second", "")})

	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}
	if got, _ := s.Get(5); got.Name != "second" {
		t.Errorf("Get(5).Name = %q", got.Name)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	s := New([]models.Court{c(1, "a", "")})
	got, ok := s.Get(1)
	if !ok {
		t.Fatal("Get(1) missing")
	}
	*got.ID = 99
	got.Name = "mutated"
	if again, _ := s.Get(1); again.Name != "a" || again.IDValue() != 1 {
		t.Errorf("set mutated through copy: %+v", again)
	}
}

func TestEvictAndPut(t *testing.T) {
	s := New([]models.Court{c(1, "a", ""), c(2, "b", "")})
	if !s.Evict(1) {
		t.Error("Evict(1) = false")
	}
	if s.Evict(1) {
		t.Error("second Evict(1) = true")
	}
	s.Put(c(3, "c", ""))
	if got := s.IDs(); !reflect.DeepEqual(got, []int{2, 3}) {
		t.Errorf("IDs = %v", got)
	}

	var empty Set
	empty.Put(c(9, "z", ""))
	if empty.Len() != 1 {
		t.Errorf("Put on zero Set: Len = %d", empty.Len())
	}
}

func TestSorted(t *testing.T) {
	s := New([]models.Court{c(3, "beta", ""), c(1, "Alpha", ""), c(2, "alpha", "")})
	var ids []int
	for _, ct := range s.Sorted() {
		ids = append(ids, ct.IDValue())
	}
	if !reflect.DeepEqual(ids, []int{1, 2, 3}) {
		t.Errorf("order = %v", ids)
	}
}

func TestFilter(t *testing.T) {
	s := New([]models.Court{
		c(1, "Valpurinpuisto school", "Meilahti"),
		c(2, "Kallio court", "Kallio"),
		c(3, "Brahenkenttä", "Kallio"),
	})

	if got := s.Filter(""); len(got) != 3 {
		t.Errorf("empty query returned %d", len(got))
	}

	got := s.Filter("valp")
	if len(got) != 1 || got[0].IDValue() != 1 {
		t.Errorf("Filter(valp) = %+v", got)
	}

	got = s.Filter("kallio")
	if len(got) != 2 {
		t.Errorf("Filter(kallio) = %d results, want 2", len(got))
	}

	if got := s.Filter("zzzz"); len(got) != 0 {
		t.Errorf("Filter(zzzz) = %+v", got)
	}
}
