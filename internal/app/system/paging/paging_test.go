package paging

import (
	"errors"
	"net/http/httptest"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestParseLimit(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"", PageSize},
		{"?limit=10", 10},
		{"?limit=0", PageSize},
		{"?limit=-4", PageSize},
		{"?limit=abc", PageSize},
		{"?limit=100000", MaxPageSize},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/notifications"+tt.query, nil)
			if got := ParseLimit(r); got != tt.want {
				t.Errorf("ParseLimit(%q) = %d, want %d", tt.query, got, tt.want)
			}
		})
	}
}

func TestParseCursor(t *testing.T) {
	id := primitive.NewObjectID()

	r := httptest.NewRequest("GET", "/n?before="+id.Hex(), nil)
	got, err := ParseCursor(r, "before")
	if err != nil || got != id {
		t.Errorf("ParseCursor = %s, %v", got.Hex(), err)
	}

	r = httptest.NewRequest("GET", "/n", nil)
	got, err = ParseCursor(r, "before")
	if err != nil || !got.IsZero() {
		t.Errorf("missing cursor = %s, %v; want zero, nil", got.Hex(), err)
	}

	r = httptest.NewRequest("GET", "/n?before=zzz", nil)
	if _, err := ParseCursor(r, "before"); !errors.Is(err, ErrBadCursor) {
		t.Errorf("err = %v, want ErrBadCursor", err)
	}
}

func TestTrimPage(t *testing.T) {
	rows := []int{1, 2, 3, 4}
	if !TrimPage(&rows, 3) {
		t.Error("expected hasNext")
	}
	if len(rows) != 3 {
		t.Errorf("len = %d, want 3", len(rows))
	}

	rows = []int{1, 2}
	if TrimPage(&rows, 3) {
		t.Error("short page should not have next")
	}
	if LimitPlusOne(50) != 51 {
		t.Error("LimitPlusOne")
	}
}
