// Package users defines the user-directory domain model shared by the
// query service, the HTTP API and the list consumer.
package users

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// PageSize is the fixed number of users returned per page.
const PageSize = 10

// MaxPage is the largest page whose offset fits in an int. Larger pages are
// clamped to it, which still lies past every stored row.
const MaxPage = math.MaxInt/PageSize + 1

var (
	// ErrInvalidArgument is returned for malformed page requests or user input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrStorageUnavailable is returned when the backing store fails a query.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// User is a directory entry. ID and CreatedAt are assigned by storage.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Initial returns the upper-cased first character of the name, or "" for an
// empty name.
func (u User) Initial() string {
	for _, r := range u.Name {
		return strings.ToUpper(string(r))
	}
	return ""
}

// Compare orders users for listing: by name ignoring case, then by exact
// name bytes, then by id. The SQL queries use the same order through
// lower(name) COLLATE "C", name COLLATE "C", id.
func Compare(a, b User) int {
	if c := cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// PageRequest selects one page of users, optionally filtered by first letter.
type PageRequest struct {
	Page   int
	Letter string
}

// Window returns the offset/limit pair for the request.
// Pages are clamped to [1, MaxPage].
func (r PageRequest) Window() (offset, limit int) {
	return (clampPage(r.Page) - 1) * PageSize, PageSize
}

// Normalize validates the request and returns a copy with the letter
// upper-cased and the page clamped to [1, MaxPage].
func (r PageRequest) Normalize() (PageRequest, error) {
	r.Page = clampPage(r.Page)
	if r.Letter == "" {
		return r, nil
	}
	letter, err := NormalizeLetter(r.Letter)
	if err != nil {
		return r, err
	}
	r.Letter = letter
	return r, nil
}

// String renders the request for logging and cache keys.
func (r PageRequest) String() string {
	if r.Letter == "" {
		return fmt.Sprintf("page=%d", r.Page)
	}
	return fmt.Sprintf("page=%d:letter=%s", r.Page, r.Letter)
}

// PageResponse is the only wire shape for a page of users.
type PageResponse struct {
	Users []User `json:"users"`
}

// NormalizeLetter upper-cases s and requires it to be a single A-Z character.
func NormalizeLetter(s string) (string, error) {
	letter := strings.ToUpper(s)
	if len(letter) != 1 || letter[0] < 'A' || letter[0] > 'Z' {
		return "", fmt.Errorf("%w: letter %q must be a single A-Z character", ErrInvalidArgument, s)
	}
	return letter, nil
}

// ParsePage parses a page query value from its leading decimal digits, so
// "3abc" is page 3. Missing, non-numeric and non-positive values fall back to
// page 1; values above MaxPage are clamped to it.
func ParsePage(s string) int {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "-"):
		return 1
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}

	page := 0
	for i := 0; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		d := int(s[i] - '0')
		if page > (MaxPage-d)/10 {
			return MaxPage
		}
		page = page*10 + d
	}
	return clampPage(page)
}

func clampPage(page int) int {
	switch {
	case page < 1:
		return 1
	case page > MaxPage:
		return MaxPage
	default:
		return page
	}
}

// ValidateName trims the name and rejects empty values.
func ValidateName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", fmt.Errorf("%w: name is required", ErrInvalidArgument)
	}
	return trimmed, nil
}
