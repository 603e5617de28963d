package dedupe

// Package dedupe provides shared singleflight groups used to deduplicate
// concurrent generation requests. Using a centralized singleflight.Group
// ensures that only one generation job runs for a given key while other
// callers wait for the result.

import "golang.org/x/sync/singleflight"

// TurnGroup deduplicates discussion batch generation, keyed by
// "<session>:turns:<epoch>:<lap>". Rapid repeated advance input can
// only start one batch per lap per epoch.
var TurnGroup singleflight.Group

// VoteGroup deduplicates vote collection, keyed by "<session>:votes:<round>".
var VoteGroup singleflight.Group

// ReactionGroup deduplicates elimination reaction batches, keyed by
// "<session>:reactions:<round>".
var ReactionGroup singleflight.Group

// VictoryGroup deduplicates victory comment generation, keyed by
// "<session>:victory:<winner-index>".
var VictoryGroup singleflight.Group
