package ports

import "context"

// Fetcher retrieves a resource to a local path.
//
//go:generate go run go.uber.org/mock/mockgen -source=fetcher.go -destination=mocks/mock_fetcher.go -package=mocks
type Fetcher interface {
	// Fetch downloads url (http, https, or a plain file path) to dest,
	// writing through a temporary file so a partial fetch never clobbers an
	// existing artifact. When checksum is non-empty ("xxh64:<hex>") the
	// content is verified and a mismatch fails the fetch.
	Fetch(ctx context.Context, url, dest, checksum string) error
}
