package usecase

import (
	"html"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/upclookup/backend/internal/domain"
)

// FieldExtractor derives product fields from raw lookup pages.
// It holds no mutable state and is safe for concurrent use.
type FieldExtractor struct {
	enableDebugLogging bool
}

// Compiled patterns for markup scanning
var (
	// First top-level heading, content may span lines
	headingPattern = regexp.MustCompile(`(?is)<h1\b[^>]*>(.*?)</h1\s*>`)

	// Any markup tag, used to strip nested elements from heading text
	tagPattern = regexp.MustCompile(`(?s)<[^>]*>`)

	imgTagPattern  = regexp.MustCompile(`(?is)<img\b[^>]*>`)
	metaTagPattern = regexp.MustCompile(`(?is)<meta\b[^>]*>`)

	// name="value", name='value' or name=value
	attributePattern = regexp.MustCompile(`(?s)([a-zA-Z_:][-a-zA-Z0-9_:.]*)\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s"'=<>` + "`" + `]+))`)
)

// productClassToken marks the preferred product image
const productClassToken = "product"

// NewFieldExtractor creates a new field extractor
func NewFieldExtractor(enableDebugLogging bool) *FieldExtractor {
	return &FieldExtractor{enableDebugLogging: enableDebugLogging}
}

// Extract builds a LookupResult from doc. Each field is matched
// independently and left nil when its rule finds nothing; Extract never fails.
func (e *FieldExtractor) Extract(doc *domain.RawDocument, barcode string) *domain.LookupResult {
	result := &domain.LookupResult{Barcode: barcode}
	if doc == nil {
		return result
	}

	result.Name = extractName(doc.Body)
	result.Image = e.extractImage(doc.Body)
	result.Description = extractDescription(doc.Body)
	result.Found = result.Name != nil

	return result
}

// extractName returns the text of the first h1 element with nested tags
// stripped and surrounding whitespace trimmed. A heading with no text yields
// an empty name, not an absent one.
func extractName(body string) *string {
	match := headingPattern.FindStringSubmatch(body)
	if match == nil {
		return nil
	}

	text := strings.TrimSpace(html.UnescapeString(tagPattern.ReplaceAllString(match[1], "")))
	return &text
}

// extractImage prefers an img whose class mentions "product" and falls back
// to the first img in the document
func (e *FieldExtractor) extractImage(body string) *string {
	var fallback *string

	for _, tag := range imgTagPattern.FindAllString(body, -1) {
		attrs := parseAttributes(tag)
		src := optional(attrs["src"])
		if src == nil {
			continue
		}

		if strings.Contains(strings.ToLower(attrs["class"]), productClassToken) {
			e.debugLog("image matched product class: %s", *src)
			return src
		}
		if fallback == nil {
			fallback = src
		}
	}

	if fallback != nil {
		e.debugLog("image fell back to first img: %s", *fallback)
	}
	return fallback
}

// extractDescription returns the content of the meta description element
func extractDescription(body string) *string {
	for _, tag := range metaTagPattern.FindAllString(body, -1) {
		attrs := parseAttributes(tag)
		if !strings.EqualFold(strings.TrimSpace(attrs["name"]), "description") {
			continue
		}
		if content := optional(html.UnescapeString(attrs["content"])); content != nil {
			return content
		}
	}
	return nil
}

// parseAttributes returns the attributes of a single start tag keyed by
// lowercase name. The first occurrence of a repeated attribute wins.
func parseAttributes(tag string) map[string]string {
	// Self-closing slash is not part of an unquoted value
	tag = strings.TrimSuffix(strings.TrimSuffix(tag, ">"), "/")

	attrs := make(map[string]string)
	for _, m := range attributePattern.FindAllStringSubmatch(tag, -1) {
		name := strings.ToLower(m[1])
		if _, seen := attrs[name]; seen {
			continue
		}
		// Only one of the three value groups is non-empty
		attrs[name] = m[2] + m[3] + m[4]
	}
	return attrs
}

// optional trims s and returns nil when nothing is left
func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func (e *FieldExtractor) debugLog(format string, args ...interface{}) {
	if e.enableDebugLogging {
		log.Debug().Str("component", "extractor").Msgf(format, args...)
	}
}
