package cli

import (
	"fmt"
	"time"

	"github.com/liftlog/liftlog/internal/offline"
)

// openGateway builds a network-backed gateway over the cache database.
func (c *Context) openGateway() (*offline.Gateway, *offline.CacheDB, error) {
	cache, err := offline.OpenCacheDB(c.Ctx, c.CacheDBPath)
	if err != nil {
		return nil, nil, err
	}
	gw := offline.NewGateway(cache, offline.Options{
		Fetcher:     offline.NewHTTPFetcher(30 * time.Second),
		Bus:         c.Bus,
		Broadcaster: c.Notifier,
	})
	return gw, cache, nil
}

type SyncStatusCmd struct{}

func (c *SyncStatusCmd) Run(ctx *Context) error {
	cache, err := offline.OpenCacheDB(ctx.Ctx, ctx.CacheDBPath)
	if err != nil {
		return err
	}
	defer cache.Close()

	queue, err := cache.Queue(ctx.Ctx)
	if err != nil {
		return err
	}
	if len(queue) == 0 {
		fmt.Println(okStyle.Render("sync queue is empty"))
		return nil
	}

	printTitle(fmt.Sprintf("%d pending mutations", len(queue)))
	rows := make([][]string, 0, len(queue))
	for _, entry := range queue {
		rows = append(rows, []string{
			entry.UUID[:8],
			entry.Method,
			entry.URL,
			entry.EnqueuedAt.Local().Format("2006-01-02 15:04"),
			fmt.Sprintf("%d", entry.Attempts),
		})
	}
	printTable([]string{"ID", "METHOD", "URL", "QUEUED", "ATTEMPTS"}, rows)
	return nil
}

type SyncReplayCmd struct{}

func (c *SyncReplayCmd) Run(ctx *Context) error {
	gw, cache, err := ctx.openGateway()
	if err != nil {
		return err
	}
	defer cache.Close()

	result, err := gw.Replay(ctx.Ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Replayed %d mutations, %d remaining\n", result.Replayed, result.Remaining)
	return nil
}

type SyncInstallCmd struct{}

func (c *SyncInstallCmd) Run(ctx *Context) error {
	gw, cache, err := ctx.openGateway()
	if err != nil {
		return err
	}
	defer cache.Close()

	if err := gw.Install(ctx.Ctx); err != nil {
		return err
	}
	if err := gw.Activate(ctx.Ctx); err != nil {
		return err
	}
	fmt.Println(okStyle.Render("app shell cached for offline use"))
	return nil
}
