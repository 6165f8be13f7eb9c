package media

import "strings"

// ImageResolver turns the raw image strings stored on quotations and
// shipments into URLs the dashboard can render.
type ImageResolver struct {
	BasePath    string
	HostHint    string
	Placeholder string
}

// ResolvedImage is a renderable URL. HasImage is false when the placeholder
// stands in for a missing or unusable value.
type ResolvedImage struct {
	URL      string `json:"url"`
	HasImage bool   `json:"hasImage"`
}

// Resolve classifies raw: site-relative paths, storage URLs and external
// http(s) URLs pass through; bare filenames are prefixed with the storage
// base path; anything else renders the placeholder.
func (r ImageResolver) Resolve(raw string) ResolvedImage {
	value := strings.TrimSpace(raw)
	switch {
	case value == "":
		return r.placeholder()
	case strings.HasPrefix(value, "/"):
		return ResolvedImage{URL: value, HasImage: true}
	case r.HostHint != "" && strings.Contains(value, r.HostHint):
		return ResolvedImage{URL: value, HasImage: true}
	case hasHTTPScheme(value):
		return ResolvedImage{URL: value, HasImage: true}
	case isBareFilename(value):
		return ResolvedImage{URL: joinBase(r.BasePath, value), HasImage: true}
	default:
		return r.placeholder()
	}
}

// ResolveFirst resolves the first non-blank candidate.
func (r ImageResolver) ResolveFirst(candidates ...string) ResolvedImage {
	for _, c := range candidates {
		if strings.TrimSpace(c) != "" {
			return r.Resolve(c)
		}
	}
	return r.placeholder()
}

// ResolveAll resolves every entry, dropping blanks.
func (r ImageResolver) ResolveAll(values []string) []ResolvedImage {
	out := make([]ResolvedImage, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		out = append(out, r.Resolve(v))
	}
	return out
}

func (r ImageResolver) placeholder() ResolvedImage {
	return ResolvedImage{URL: r.Placeholder, HasImage: false}
}

func hasHTTPScheme(v string) bool {
	lower := strings.ToLower(v)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func isBareFilename(v string) bool {
	return !strings.Contains(v, "://") && !strings.ContainsAny(v, "/\\")
}

func joinBase(base, name string) string {
	if base == "" {
		return name
	}
	if strings.HasSuffix(base, "/") {
		return base + name
	}
	return base + "/" + name
}
