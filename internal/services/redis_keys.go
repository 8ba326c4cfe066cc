package services

import "time"

const (
	KeyHouse        = "vrf:house"
	KeyPlayer       = "vrf:player:%s"
	KeyTokenAccount = "vrf:account:%s"
	KeyRequest      = "vrf:request:%s"
	KeyRateLimit    = "vrf:ratelimit:%s:%s"

	ChannelEvents = "vrf:events"

	DefaultRateLimitWindow = time.Minute

	maxTxAttempts = 16
)
