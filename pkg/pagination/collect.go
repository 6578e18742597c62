package pagination

import (
	"context"
	"fmt"
	"time"

	"github.com/Sternrassler/user-directory/pkg/users"
	"github.com/rs/zerolog/log"
)

// MaxPages bounds FetchAll so a server that never returns an empty page
// cannot loop forever.
const MaxPages = 100000

// FetchAll requests pages 1, 2, ... for letter until a page comes back empty
// and returns their concatenation. On error the users gathered so far are
// returned together with the error.
func FetchAll(ctx context.Context, fetcher PageFetcher, letter string, timeout time.Duration) ([]users.User, error) {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	start := time.Now()

	var all []users.User
	for page := 1; page <= MaxPages; page++ {
		pageCtx, cancel := context.WithTimeout(ctx, timeout)
		resp, err := fetcher.FetchPage(pageCtx, users.PageRequest{Page: page, Letter: letter})
		cancel()
		if err != nil {
			log.Warn().
				Err(err).
				Int("page", page).
				Int("fetched", len(all)).
				Msg("Page fetch failed - returning partial results")
			return all, fmt.Errorf("fetch page %d (partial data: %d users): %w", page, len(all), err)
		}

		if len(resp.Users) == 0 {
			log.Info().
				Str("letter", letter).
				Int("pages", page-1).
				Int("users", len(all)).
				Dur("duration", time.Since(start)).
				Msg("Fetch complete")
			return all, nil
		}

		all = append(all, resp.Users...)

		// Progress logging every 50 pages
		if page%50 == 0 {
			log.Info().
				Int("pages", page).
				Int("users", len(all)).
				Msg("Fetch progress")
		}
	}

	return all, fmt.Errorf("no empty page after %d pages", MaxPages)
}
