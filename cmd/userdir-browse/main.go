package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Sternrassler/user-directory/pkg/client"
	"github.com/Sternrassler/user-directory/pkg/config"
	"github.com/Sternrassler/user-directory/pkg/logging"
	"github.com/Sternrassler/user-directory/pkg/pagination"
	"github.com/Sternrassler/user-directory/pkg/virtual"
	"github.com/rs/zerolog/log"
)

// Footer status lines.
const (
	statusLoading  = "Loading more users..."
	statusMore     = "Scroll down to load more users"
	statusComplete = "All users loaded"
)

const usage = "commands: j=down k=up g=top l <A-Z>=filter l=clear r=reload q=quit"

func main() {
	configPath := flag.String("config", "", "path to YAML config file (default $CONFIG_FILE)")
	apiURL := flag.String("api", "", "directory API base URL (default $API_URL)")
	letter := flag.String("letter", "", "only show users whose name starts with this letter")
	rows := flag.Int("rows", 11, "rows per screen")
	dump := flag.Bool("all", false, "print every user and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *apiURL != "" {
		cfg.APIURL = *apiURL
	}

	logging.Setup(logging.Config{
		Level:   logging.LogLevel(cfg.Log.Level),
		Pretty:  true,
		Output:  os.Stderr,
		Service: "userdir-browse",
	})

	c, err := client.New(client.DefaultConfig(cfg.APIURL))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create client")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *dump {
		all, err := pagination.FetchAll(ctx, c, strings.ToUpper(*letter), 15*time.Second)
		for _, u := range all {
			fmt.Printf("%d\t%s\t%s\n", u.ID, u.Name, u.CreatedAt.Format(time.RFC3339))
		}
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to fetch users")
		}
		return
	}

	b := newBrowser(c, *rows, os.Stdout)
	if err := b.run(ctx, *letter, os.Stdin); err != nil {
		log.Fatal().Err(err).Msg("Browse failed")
	}
}

// browser renders the virtualized list screen by screen.
type browser struct {
	consumer *pagination.Consumer
	virt     *virtual.Virtualizer
	rows     int
	offset   int
	out      io.Writer
}

func newBrowser(fetcher pagination.PageFetcher, rows int, out io.Writer) *browser {
	if rows < 1 {
		rows = 1
	}
	return &browser{
		consumer: pagination.NewConsumer(fetcher, pagination.DefaultConfig()),
		virt:     virtual.New(0, virtual.DefaultConfig()),
		rows:     rows,
		out:      out,
	}
}

func (b *browser) viewport() int {
	return b.rows * virtual.DefaultRowHeight
}

func (b *browser) run(ctx context.Context, letter string, in io.Reader) error {
	if letter != "" {
		if err := b.consumer.SetFilter(ctx, letter); err != nil {
			return err
		}
	} else {
		b.consumer.Start(ctx)
	}
	b.consumer.Wait()
	b.show(ctx)

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}

		fields := strings.Fields(scanner.Text())
		cmd := ""
		if len(fields) > 0 {
			cmd = fields[0]
		}

		switch cmd {
		case "", "j":
			// Scrolling after a failed fetch retries it.
			if b.consumer.Snapshot().State == pagination.StateErrored {
				b.consumer.LoadMore(ctx)
				b.consumer.Wait()
			}
			b.scroll(b.viewport())
		case "k":
			b.scroll(-b.viewport())
		case "g":
			b.offset = 0
		case "l":
			filter := ""
			if len(fields) > 1 {
				filter = fields[1]
			}
			if err := b.consumer.SetFilter(ctx, filter); err != nil {
				fmt.Fprintf(b.out, "Invalid letter %q\n", filter)
				continue
			}
			b.offset = 0
		case "r":
			b.consumer.Reload(ctx)
			b.offset = 0
		case "q":
			return nil
		default:
			fmt.Fprintln(b.out, usage)
			continue
		}

		b.consumer.Wait()
		b.show(ctx)
	}
	return scanner.Err()
}

func (b *browser) scroll(delta int) {
	b.offset += delta
	maxOffset := max(b.virt.TotalSize()-b.viewport(), 0)
	b.offset = min(max(b.offset, 0), maxOffset)
}

// settle lets the consumer fetch until the rendered range is no longer
// near the end of the loaded rows. A failed fetch is not retried here.
func (b *browser) settle(ctx context.Context) (pagination.Snapshot, []virtual.Item) {
	for {
		snap := b.consumer.Snapshot()
		b.virt.SetCount(virtual.RowCount(len(snap.Users), snap.HasMore))
		items := b.virt.Items(b.offset, b.viewport())
		if len(items) == 0 || snap.State == pagination.StateErrored {
			return snap, items
		}
		if !b.consumer.OnVisibleRange(ctx, items[len(items)-1].Index) {
			return snap, items
		}
		b.consumer.Wait()
	}
}

func (b *browser) show(ctx context.Context) {
	snap, items := b.settle(ctx)
	first := b.virt.IndexAt(b.offset)

	header := "All users"
	if snap.Filter != "" {
		header = "Users starting with " + snap.Filter
	}
	fmt.Fprintf(b.out, "== %s ==\n", header)

	for _, it := range items {
		// Overscan rows are laid out but not drawn.
		if it.Index < first || it.Index >= first+b.rows {
			continue
		}
		if it.Index >= len(snap.Users) {
			fmt.Fprintln(b.out, "    "+statusLoading)
			continue
		}
		u := snap.Users[it.Index]
		fmt.Fprintf(b.out, "[%s] %s\n", u.Initial(), u.Name)
	}

	if len(snap.Users) == 0 && !snap.HasMore {
		fmt.Fprintln(b.out, "No users found")
	}
	if snap.Error != "" {
		fmt.Fprintln(b.out, snap.Error)
	}
	fmt.Fprintf(b.out, "-- %s (%d loaded) --\n", footer(snap), len(snap.Users))
}

func footer(snap pagination.Snapshot) string {
	switch {
	case snap.Fetching:
		return statusLoading
	case snap.HasMore:
		return statusMore
	default:
		return statusComplete
	}
}
