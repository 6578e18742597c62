// Package pagination drives incremental, scroll-triggered loading of the
// user directory.
//
// A Consumer fetches pages sequentially through a PageFetcher (normally
// *client.Client) and accumulates them. It moves between four states:
//
//	Idle --Start/SetFilter--> Fetching --ok--> Loaded
//	                              |
//	                              +--error--> Errored
//	Loaded/Errored --OnVisibleRange near the end--> Fetching
//
// At most one fetch is in flight. Every fetch carries an immutable Request
// tagged with the consumer generation; SetFilter bumps the generation, so a
// response for the previous filter is dropped when it arrives.
//
// Example usage:
//
//	c, err := client.New(client.DefaultConfig("http://localhost:8000"))
//	consumer := pagination.NewConsumer(c, pagination.DefaultConfig())
//	consumer.OnChange(func(s pagination.Snapshot) { render(s) })
//	consumer.Start(ctx)
//
//	// on scroll
//	consumer.OnVisibleRange(ctx, lastRenderedIndex)
//
// FetchAll walks every page of a filter until exhaustion; it is used for
// exports and for verifying that paged reads concatenate to the full list.
package pagination
