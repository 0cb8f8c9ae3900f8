package windowing

import "github.com/petasbytes/datachat/internal/provider"

// Stats summarizes the result of window selection.
//
// Fields:
// - Total: estimated tokens for included messages only.
// - Omitted: estimated tokens for the older messages left out.
// - IncludedGroups: number of groups included.
// - SkippedGroups: total groups minus IncludedGroups.
type Stats struct {
	Total          int
	Omitted        int
	IncludedGroups int
	SkippedGroups  int
}

// SelectRecent returns the suffix of msgs made of the newest `pairs` groups,
// without splitting a pair. Because a singleton counts as a whole group the
// window never holds more than 2*pairs messages.
//
// Rules:
//   - pairs <= 0 returns an empty window.
//   - The returned slice aliases msgs; callers must not append to it.
func SelectRecent(msgs []provider.Message, pairs int, c TokenCounter) ([]provider.Message, Stats) {
	if len(msgs) == 0 {
		return nil, Stats{}
	}
	groups := GroupPairs(msgs)
	if pairs <= 0 {
		return nil, Stats{SkippedGroups: len(groups), Omitted: CountMessages(c, msgs)}
	}

	included := min(pairs, len(groups))
	first := groups[len(groups)-included]
	window := msgs[first.Start:]

	vlogf("recent: groups_in=%d groups_skip=%d start=%d", included, len(groups)-included, first.Start)
	return window, Stats{
		Total:          CountMessages(c, window),
		Omitted:        CountMessages(c, msgs[:first.Start]),
		IncludedGroups: included,
		SkippedGroups:  len(groups) - included,
	}
}

// RecentStart returns the index in msgs at which the recent window begins.
// Everything before it is eligible for folding into the summary.
func RecentStart(msgs []provider.Message, pairs int) int {
	groups := GroupPairs(msgs)
	skip := len(groups) - max(pairs, 0)
	start := 0
	for i := 0; i < skip; i++ {
		start += groups[i].Len()
	}
	return start
}
