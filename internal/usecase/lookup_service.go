package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/upclookup/backend/internal/domain"
)

// LookupServiceConfig holds configuration for the lookup service
type LookupServiceConfig struct {
	EnableDebugLogging bool
}

// LookupService resolves a barcode into product fields.
// Flow: validate -> fetch upstream page -> extract fields -> return
type LookupService struct {
	fetcher   domain.UpstreamFetcher
	extractor *FieldExtractor
	debug     bool
}

// NewLookupService creates a new lookup service with dependencies
func NewLookupService(fetcher domain.UpstreamFetcher, config LookupServiceConfig) *LookupService {
	return &LookupService{
		fetcher:   fetcher,
		extractor: NewFieldExtractor(config.EnableDebugLogging),
		debug:     config.EnableDebugLogging,
	}
}

// Lookup fetches the upstream page for barcode and extracts its fields.
// The barcode is forwarded as given, whitespace included; only emptiness is checked.
func (s *LookupService) Lookup(ctx context.Context, barcode string) (*domain.LookupResult, error) {
	if barcode == "" {
		return nil, domain.ErrInvalidBarcode
	}

	doc, err := s.fetcher.Fetch(ctx, barcode)
	if err != nil {
		return nil, fmt.Errorf("lookup %q: %w", barcode, err)
	}

	result := s.extractor.Extract(doc, barcode)

	if s.debug {
		log.Debug().
			Str("barcode", barcode).
			Bool("found", result.Found).
			Bool("has_image", result.Image != nil).
			Bool("has_description", result.Description != nil).
			Msg("barcode lookup extracted")
	}

	return result, nil
}
