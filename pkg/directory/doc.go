// Package directory implements the paginated query service.
//
// A Service turns a page request into an offset/limit window, validates the
// optional letter filter before any storage access and returns at most
// users.PageSize users ordered by name, then id. An empty result means the
// requested window lies past the last matching user.
//
// Usage:
//
//	db, err := store.Open(ctx, config.DriverPgx, dsn, store.DefaultOptions())
//	if err != nil {
//		return err
//	}
//	defer db.Close()
//
//	svc := directory.NewService(db, directory.Config{})
//	page, err := svc.ListUsers(ctx, users.PageRequest{Page: 2, Letter: "b"})
//
// An optional PageCache (for example *cache.Manager) is consulted before
// storage. Cache failures are logged and never fail a request.
package directory
