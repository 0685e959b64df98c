// Package pagination fetches every page of a paginated endpoint into a
// tabular.Table.
//
// The API reports the page count in the "last_page" field of each page body.
// The first page is fetched synchronously: it yields the page count and the
// column schema, which stays fixed for the rest of the endpoint. Pages
// 2..last_page are then distributed over a bounded pool of workers that
// append their rows to the shared table in completion order.
//
// Example usage:
//
//	f := pagination.NewFetcher(apiClient, pagination.DefaultConfig())
//	table, stats, err := f.FetchEndpoint(ctx, "pads", "/pads", nil)
//
// The fetcher:
//   - Fetches page 1 to determine total pages and the schema
//   - Spawns a worker pool (default 5 workers) in an errgroup
//   - Feeds pages 2..N through a bounded channel
//   - Logs and counts failed pages, which contribute no rows
//   - Aborts the endpoint on a record ordering violation
package pagination
