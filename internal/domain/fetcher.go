package domain

import "context"

// UpstreamFetcher retrieves the raw lookup page for a barcode
type UpstreamFetcher interface {
	Fetch(ctx context.Context, barcode string) (*RawDocument, error)
}
