package tenant

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Resolver extracts a raw tenant identifier from an HTTP request.
type Resolver interface {
	// Resolve extracts the tenant identifier from the request.
	// Returns empty string if no tenant identifier is found.
	// Returns error if the extraction fails.
	Resolve(r *http.Request) (string, error)
}

// HostResolver uses the request host (without port) as the tenant identifier.
// This matches registries that route by full custom domain.
type HostResolver struct{}

// NewHostResolver creates a new host resolver.
func NewHostResolver() *HostResolver {
	return &HostResolver{}
}

// Resolve returns the lowercased request host with any port stripped.
func (hr *HostResolver) Resolve(req *http.Request) (string, error) {
	host := req.Host
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		host = host[:idx]
	}
	return strings.ToLower(strings.TrimSpace(host)), nil
}

// SubdomainResolver extracts tenant identifier from request subdomain.
type SubdomainResolver struct {
	// Suffix to strip from the host (e.g., ".saas.com")
	// If empty, only the first subdomain part is used.
	Suffix string
}

// NewSubdomainResolver creates a new subdomain resolver.
func NewSubdomainResolver(suffix string) *SubdomainResolver {
	return &SubdomainResolver{Suffix: suffix}
}

// Resolve extracts tenant from subdomain (e.g., "acme" from "acme.app.com").
func (sr *SubdomainResolver) Resolve(req *http.Request) (string, error) {
	host := req.Host

	// Remove port if present
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		host = host[:idx]
	}

	originalParts := strings.Split(host, ".")

	// Strip suffix if configured
	if sr.Suffix != "" && strings.HasSuffix(host, sr.Suffix) {
		if len(host) > len(sr.Suffix) {
			host = host[:len(host)-len(sr.Suffix)]
		}
	}

	parts := strings.Split(host, ".")
	if len(parts) == 0 || parts[0] == "" {
		return "", nil
	}

	// Skip www prefix
	subdomain := parts[0]
	if subdomain == "www" {
		if len(parts) > 1 {
			subdomain = parts[1]
		} else {
			return "", nil
		}
	}

	// Bare domain.tld is not a tenant; require subdomain.domain.tld.
	if len(originalParts) < 3 {
		return "", nil
	}

	return subdomain, nil
}

// HeaderResolver extracts tenant identifier from HTTP header.
type HeaderResolver struct {
	// HeaderName is the name of the header to read (e.g., "X-Tenant-ID")
	HeaderName string
}

// NewHeaderResolver creates a new header resolver.
func NewHeaderResolver(headerName string) *HeaderResolver {
	if headerName == "" {
		headerName = "X-Tenant-ID"
	}
	return &HeaderResolver{HeaderName: headerName}
}

// Resolve extracts tenant from the configured header.
func (hr *HeaderResolver) Resolve(req *http.Request) (string, error) {
	return req.Header.Get(hr.HeaderName), nil
}

// CompositeResolver tries multiple resolvers in order until one succeeds.
type CompositeResolver struct {
	Resolvers []Resolver
}

// NewCompositeResolver creates a new composite resolver.
func NewCompositeResolver(resolvers ...Resolver) *CompositeResolver {
	return &CompositeResolver{Resolvers: resolvers}
}

// Resolve tries each resolver in order, returning the first non-empty result.
func (c *CompositeResolver) Resolve(r *http.Request) (string, error) {
	var errs []error

	for _, resolver := range c.Resolvers {
		id, err := resolver.Resolve(r)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if id != "" {
			return id, nil
		}
	}

	if len(errs) > 0 {
		return "", fmt.Errorf("composite resolver errors: %w", errors.Join(errs...))
	}

	return "", nil
}

// ResolverFunc is an adapter to allow the use of ordinary functions as Resolvers.
type ResolverFunc func(r *http.Request) (string, error)

// Resolve calls the function.
func (f ResolverFunc) Resolve(r *http.Request) (string, error) {
	return f(r)
}
