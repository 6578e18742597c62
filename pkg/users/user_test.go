package users

import (
	"errors"
	"math"
	"testing"
)

func TestNormalizeLetter(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "uppercase", input: "B", want: "B"},
		{name: "lowercase is upper-cased", input: "b", want: "B"},
		{name: "empty", input: "", wantErr: true},
		{name: "two letters", input: "ab", wantErr: true},
		{name: "digit", input: "1", wantErr: true},
		{name: "symbol", input: "-", wantErr: true},
		{name: "non ascii", input: "é", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeLetter(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidArgument) {
					t.Fatalf("NormalizeLetter(%q) error = %v, want ErrInvalidArgument", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeLetter(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("NormalizeLetter(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParsePage(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"", 1},
		{"1", 1},
		{"3", 3},
		{"0", 1},
		{"-4", 1},
		{"abc", 1},
		{" 7 ", 7},
		{"3abc", 3},
		{"+5", 5},
		{"12.9", 12},
		{"1e3", 1},
		{"1000000000000000001", MaxPage},
		{"99999999999999999999999", MaxPage},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParsePage(tt.input); got != tt.want {
				t.Errorf("ParsePage(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b User
		want int
	}{
		{"case insensitive first", User{ID: 1, Name: "bob"}, User{ID: 2, Name: "Carl"}, -1},
		{"upper before lower on tie", User{ID: 2, Name: "Alice"}, User{ID: 1, Name: "alice"}, -1},
		{"id breaks exact tie", User{ID: 3, Name: "Bob"}, User{ID: 2, Name: "Bob"}, 1},
		{"equal", User{ID: 4, Name: "Dan"}, User{ID: 4, Name: "Dan"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compare(tt.a, tt.b); got != tt.want {
				t.Errorf("Compare(%q, %q) = %d, want %d", tt.a.Name, tt.b.Name, got, tt.want)
			}
		})
	}
}

func TestPageRequest_Window(t *testing.T) {
	tests := []struct {
		page       int
		wantOffset int
	}{
		{1, 0},
		{2, 10},
		{3, 20},
		{0, 0},
		{MaxPage, (MaxPage - 1) * PageSize},
		{math.MaxInt, (MaxPage - 1) * PageSize},
	}

	for _, tt := range tests {
		offset, limit := PageRequest{Page: tt.page}.Window()
		if offset != tt.wantOffset {
			t.Errorf("Window() offset for page %d = %d, want %d", tt.page, offset, tt.wantOffset)
		}
		if limit != PageSize {
			t.Errorf("Window() limit = %d, want %d", limit, PageSize)
		}
	}
}

func TestPageRequest_Normalize(t *testing.T) {
	req, err := PageRequest{Page: 0, Letter: "c"}.Normalize()
	if err != nil {
		t.Fatalf("Normalize() unexpected error: %v", err)
	}
	if req.Page != 1 || req.Letter != "C" {
		t.Errorf("Normalize() = %+v, want page 1 letter C", req)
	}

	req, err = PageRequest{Page: math.MaxInt}.Normalize()
	if err != nil {
		t.Fatalf("Normalize() unexpected error: %v", err)
	}
	if req.Page != MaxPage {
		t.Errorf("Normalize() page = %d, want %d", req.Page, MaxPage)
	}
	if offset, _ := req.Window(); offset < 0 {
		t.Errorf("Window() offset = %d, want non-negative", offset)
	}

	if _, err := (PageRequest{Page: 2, Letter: "ab"}).Normalize(); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Normalize() error = %v, want ErrInvalidArgument", err)
	}
}

func TestPageRequest_String(t *testing.T) {
	if got := (PageRequest{Page: 2}).String(); got != "page=2" {
		t.Errorf("String() = %q", got)
	}
	if got := (PageRequest{Page: 1, Letter: "B"}).String(); got != "page=1:letter=B" {
		t.Errorf("String() = %q", got)
	}
}

func TestValidateName(t *testing.T) {
	name, err := ValidateName("  Alice ")
	if err != nil || name != "Alice" {
		t.Errorf("ValidateName() = %q, %v", name, err)
	}
	if _, err := ValidateName("   "); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("ValidateName(blank) error = %v, want ErrInvalidArgument", err)
	}
}

func TestUser_Initial(t *testing.T) {
	if got := (User{Name: "bob"}).Initial(); got != "B" {
		t.Errorf("Initial() = %q, want B", got)
	}
	if got := (User{}).Initial(); got != "" {
		t.Errorf("Initial() = %q, want empty", got)
	}
}
