package common

import "time"

const (
	// RedisKeyArchiveLockPrefix prefixes the per-ticker lock taken while a
	// due filing is being archived.
	RedisKeyArchiveLockPrefix = "filing.archive.lock:"

	// ArchiveLockTTL bounds how long a crashed scan can hold a ticker lock.
	ArchiveLockTTL = 2 * time.Minute
)
