package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/Sternrassler/user-directory/internal/testutil"
	"github.com/Sternrassler/user-directory/pkg/users"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := New(DefaultConfig(baseURL))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func twentySevenNames() []string {
	names := make([]string, 27)
	for i := range names {
		names[i] = fmt.Sprintf("user%02d", i)
	}
	return names
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		expectError bool
	}{
		{name: "valid config", config: DefaultConfig("http://localhost:8000")},
		{name: "trailing slash", config: DefaultConfig("http://localhost:8000/")},
		{name: "empty base url", config: DefaultConfig(""), expectError: true},
		{name: "unsupported scheme", config: DefaultConfig("ftp://localhost"), expectError: true},
		{name: "empty user agent", config: Config{BaseURL: "http://localhost:8000"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.config)
			if (err != nil) != tt.expectError {
				t.Errorf("New() error = %v, expectError %v", err, tt.expectError)
			}
		})
	}
}

func TestFetchPage(t *testing.T) {
	mock := testutil.NewMockDirectory(twentySevenNames()...)
	defer mock.Close()
	c := newTestClient(t, mock.URL())

	tests := []struct {
		page      int
		wantCount int
		wantFirst string
	}{
		{page: 1, wantCount: 10, wantFirst: "user00"},
		{page: 3, wantCount: 7, wantFirst: "user20"},
		{page: 4, wantCount: 0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("page %d", tt.page), func(t *testing.T) {
			resp, err := c.FetchPage(context.Background(), users.PageRequest{Page: tt.page})
			if err != nil {
				t.Fatalf("FetchPage() error = %v", err)
			}
			if len(resp.Users) != tt.wantCount {
				t.Fatalf("got %d users, want %d", len(resp.Users), tt.wantCount)
			}
			if tt.wantCount > 0 && resp.Users[0].Name != tt.wantFirst {
				t.Errorf("first = %q, want %q", resp.Users[0].Name, tt.wantFirst)
			}
			if got := mock.GetLastQuery()["page"]; got != fmt.Sprint(tt.page) {
				t.Errorf("page query = %q, want %d", got, tt.page)
			}
		})
	}
}

func TestFetchPage_Letter(t *testing.T) {
	mock := testutil.NewMockDirectory("bob", "Alice", "Bea")
	defer mock.Close()
	c := newTestClient(t, mock.URL())

	resp, err := c.FetchPage(context.Background(), users.PageRequest{Page: 1, Letter: "B"})
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}
	if len(resp.Users) != 2 {
		t.Errorf("got %d users, want 2", len(resp.Users))
	}
	if got := mock.GetLastQuery()["letter"]; got != "B" {
		t.Errorf("letter query = %q, want B", got)
	}
}

func TestFetchPage_SendsUserAgent(t *testing.T) {
	mock := testutil.NewMockDirectory()
	defer mock.Close()

	cfg := DefaultConfig(mock.URL())
	cfg.UserAgent = "TestApp/1.0.0"
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := c.FetchPage(context.Background(), users.PageRequest{Page: 1}); err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}
	if got := mock.LastHeader.Get("User-Agent"); got != "TestApp/1.0.0" {
		t.Errorf("User-Agent = %q, want TestApp/1.0.0", got)
	}
}

func TestFetchPage_Errors(t *testing.T) {
	tests := []struct {
		name      string
		response  testutil.MockResponse
		wantClass ErrorClass
		wantCode  int
	}{
		{
			name:      "server error",
			response:  testutil.NewServerErrorResponse(),
			wantClass: ErrorClassServer,
			wantCode:  http.StatusInternalServerError,
		},
		{
			name: "bad request",
			response: testutil.MockResponse{
				StatusCode: http.StatusBadRequest,
				Body:       `{"error":"Invalid letter parameter"}`,
			},
			wantClass: ErrorClassClient,
			wantCode:  http.StatusBadRequest,
		},
		{
			name:      "bare array",
			response:  testutil.NewBareArrayResponse(),
			wantClass: ErrorClassDecode,
			wantCode:  http.StatusOK,
		},
		{
			name:      "missing users field",
			response:  testutil.NewPageResponse(`{}`),
			wantClass: ErrorClassDecode,
			wantCode:  http.StatusOK,
		},
		{
			name:      "null users field",
			response:  testutil.NewPageResponse(`{"users":null}`),
			wantClass: ErrorClassDecode,
			wantCode:  http.StatusOK,
		},
		{
			name:      "malformed json",
			response:  testutil.NewPageResponse(`{"users":[`),
			wantClass: ErrorClassDecode,
			wantCode:  http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := testutil.NewMockDirectory()
			defer mock.Close()
			mock.SetResponse(PathUsers, tt.response)
			c := newTestClient(t, mock.URL())

			resp, err := c.FetchPage(context.Background(), users.PageRequest{Page: 1})
			if err == nil {
				t.Fatalf("expected error, got %+v", resp)
			}

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %T", err)
			}
			if apiErr.ErrorClass != tt.wantClass {
				t.Errorf("ErrorClass = %q, want %q", apiErr.ErrorClass, tt.wantClass)
			}
			if apiErr.StatusCode != tt.wantCode {
				t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, tt.wantCode)
			}
		})
	}
}

func TestFetchPage_ErrorMessage(t *testing.T) {
	mock := testutil.NewMockDirectory()
	defer mock.Close()
	mock.SetResponse(PathUsersByLetter, testutil.MockResponse{
		StatusCode: http.StatusBadRequest,
		Body:       `{"error":"Invalid letter parameter"}`,
	})
	c := newTestClient(t, mock.URL())

	_, err := c.FetchPage(context.Background(), users.PageRequest{Page: 1, Letter: "Q"})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Message != "Invalid letter parameter" {
		t.Errorf("Message = %q, want Invalid letter parameter", apiErr.Message)
	}
}

func TestFetchPage_NetworkFailure(t *testing.T) {
	mock := testutil.NewMockDirectory()
	url := mock.URL()
	mock.Close()

	c := newTestClient(t, url)
	_, err := c.FetchPage(context.Background(), users.PageRequest{Page: 1})

	if !IsNetworkFailure(err) {
		t.Fatalf("expected network failure, got %v", err)
	}
	if ClassOf(err) != ErrorClassNetwork {
		t.Errorf("ClassOf() = %q, want %q", ClassOf(err), ErrorClassNetwork)
	}
}

func TestFetchPage_NoRetry(t *testing.T) {
	mock := testutil.NewMockDirectory()
	defer mock.Close()
	mock.SetResponse(PathUsers, testutil.NewServerErrorResponse())
	c := newTestClient(t, mock.URL())

	_, _ = c.FetchPage(context.Background(), users.PageRequest{Page: 1})

	if got := mock.GetRequestCount(); got != 1 {
		t.Errorf("request count = %d, want 1", got)
	}
}

func TestFetchPage_ContextTimeout(t *testing.T) {
	mock := testutil.NewMockDirectory()
	defer mock.Close()
	mock.SetResponse(PathUsers, testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"users":[]}`,
		Delay:      200 * time.Millisecond,
	})
	c := newTestClient(t, mock.URL())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.FetchPage(ctx, users.PageRequest{Page: 1})
	if !IsNetworkFailure(err) {
		t.Errorf("expected network failure on timeout, got %v", err)
	}
}

func TestCreateUser(t *testing.T) {
	mock := testutil.NewMockDirectory()
	defer mock.Close()
	c := newTestClient(t, mock.URL())

	u, err := c.CreateUser(context.Background(), "Zoe")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if u.ID == 0 || u.Name != "Zoe" || u.CreatedAt.IsZero() {
		t.Errorf("unexpected user: %+v", u)
	}
	if len(mock.Users()) != 1 {
		t.Errorf("mock holds %d users, want 1", len(mock.Users()))
	}
}

func TestCreateUser_Invalid(t *testing.T) {
	mock := testutil.NewMockDirectory()
	defer mock.Close()
	c := newTestClient(t, mock.URL())

	_, err := c.CreateUser(context.Background(), "  ")
	if ClassOf(err) != ErrorClassClient {
		t.Fatalf("expected client error, got %v", err)
	}

	var apiErr *APIError
	errors.As(err, &apiErr)
	if apiErr.Message != "Invalid name parameter" {
		t.Errorf("Message = %q, want Invalid name parameter", apiErr.Message)
	}
}
