package models

import "testing"

func TestNormalizePagination(t *testing.T) {
	cases := []struct {
		name        string
		page, limit int
		wantPage    int
		wantLimit   int
	}{
		{"defaults", 0, 0, 1, DefaultPageLimit},
		{"negative page", -3, 10, 1, 10},
		{"limit clamped to max", 2, 500, 2, MaxPageLimit},
		{"within range", 3, 50, 3, 50},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := NormalizePagination(c.page, c.limit)
			if got.Page != c.wantPage || got.Limit != c.wantLimit {
				t.Errorf("NormalizePagination(%d, %d) = %+v, want page=%d limit=%d",
					c.page, c.limit, got, c.wantPage, c.wantLimit)
			}
		})
	}
}

func TestPaginationSkip(t *testing.T) {
	p := Pagination{Page: 3, Limit: 20}
	if got := p.Skip(); got != 40 {
		t.Errorf("Skip() = %d, want 40", got)
	}
}

func TestPaginationPages(t *testing.T) {
	p := Pagination{Page: 1, Limit: 20}
	cases := []struct {
		total int64
		want  int64
	}{
		{0, 1},
		{1, 1},
		{20, 1},
		{21, 2},
		{199, 10},
	}
	for _, c := range cases {
		if got := p.Pages(c.total); got != c.want {
			t.Errorf("Pages(%d) = %d, want %d", c.total, got, c.want)
		}
	}
}

func TestNewPaginatedNilData(t *testing.T) {
	p := NormalizePagination(1, 20)
	env := NewPaginated[string](nil, 0, p)
	if env.Data == nil {
		t.Fatal("nil data must be replaced with an empty slice")
	}
	if len(env.Data) != 0 || env.Total != 0 || env.Pages != 1 {
		t.Errorf("unexpected envelope: %+v", env)
	}
}
