package utils

import "testing"

func TestAtoiDefault(t *testing.T) {
	cases := []struct {
		s    string
		def  int
		want int
	}{
		{"", 10, 10},
		{"42", 0, 42},
		{"-13", 1, -13},
		{"0012", 99, 12},
		{"x", 5, 5},
		{" 42", 7, 7},
		{"999999999999999999999999", -1, -1},
	}
	for _, tc := range cases {
		if got := AtoiDefault(tc.s, tc.def); got != tc.want {
			t.Fatalf("AtoiDefault(%q, %d) = %d; want %d", tc.s, tc.def, got, tc.want)
		}
	}
}

func TestParsePage(t *testing.T) {
	cases := []struct {
		page, size         string
		wantPage, wantSize int
	}{
		{"", "", 1, DefaultPageSize},
		{"3", "25", 3, 25},
		{"0", "0", 1, 1},
		{"-2", "1000", 1, MaxPageSize},
		{"abc", "x", 1, DefaultPageSize},
	}
	for _, tc := range cases {
		p, s := ParsePage(tc.page, tc.size)
		if p != tc.wantPage || s != tc.wantSize {
			t.Errorf("ParsePage(%q, %q) = %d, %d; want %d, %d", tc.page, tc.size, p, s, tc.wantPage, tc.wantSize)
		}
	}
}

func TestOffsetAndTotalPages(t *testing.T) {
	if got := Offset(3, 10); got != 20 {
		t.Fatalf("Offset(3, 10) = %d", got)
	}
	for _, tc := range []struct {
		total int64
		size  int
		want  int
	}{{0, 10, 0}, {1, 10, 1}, {10, 10, 1}, {11, 10, 2}, {5, 0, 0}} {
		if got := TotalPages(tc.total, tc.size); got != tc.want {
			t.Errorf("TotalPages(%d, %d) = %d; want %d", tc.total, tc.size, got, tc.want)
		}
	}
}
