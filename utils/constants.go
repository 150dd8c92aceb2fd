// File: utils/constants.go
package utils

import "time"

// AuthCachePrefix is the prefix used for Redis authorization cache keys.
const AuthCachePrefix = "auth:"

// AuthCacheTTL is the time-to-live for authorization cache entries.
const AuthCacheTTL = 10 * time.Minute

// UnreadCachePrefix is the prefix for per-user unread notification counters.
const UnreadCachePrefix = "unread:"

// UnreadCacheTTL bounds staleness of cached unread counters.
const UnreadCacheTTL = 5 * time.Minute
