// internal/app/system/limits/limits.go
package limits

// Request body size limits for JSON endpoints.
const (
	// MaxJSONBodySize caps create requests (events, groups, memberships).
	MaxJSONBodySize = 64 << 10 // 64 KB

	// MaxPostBodySize caps post submissions; content is HTML.
	MaxPostBodySize = 256 << 10 // 256 KB
)
