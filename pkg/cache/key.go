package cache

import (
	"fmt"

	"github.com/Sternrassler/user-directory/pkg/users"
)

// GenerationKey holds the current page generation counter.
const GenerationKey = "userdir:users:generation"

// PageKey identifies one cached page.
type PageKey struct {
	// Generation is the value of GenerationKey when the page was read.
	Generation int64

	// Request is the normalized page request.
	Request users.PageRequest
}

// String generates a deterministic cache key string.
// Format: userdir:users:v<generation>:page=<n>[:letter=<L>]
//
// Example:
//
//	userdir:users:v3:page=2:letter=B
func (k PageKey) String() string {
	return fmt.Sprintf("userdir:users:v%d:%s", k.Generation, k.Request.String())
}
