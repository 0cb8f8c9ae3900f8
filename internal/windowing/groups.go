package windowing

import (
	"fmt"
	"os"

	"github.com/petasbytes/datachat/internal/provider"
)

// GroupKind denotes the atomic unit type when selecting a window.
type GroupKind int

const (
	GroupSingleton GroupKind = iota
	GroupPair
)

// Group describes a contiguous span of messages [Start, End) in the original slice.
type Group struct {
	Kind  GroupKind
	Start int // inclusive index into msgs
	End   int // exclusive index into msgs
}

// Len returns the number of messages covered by g.
func (g Group) Len() int { return g.End - g.Start }

// GroupPairs groups messages into user→assistant pairs. A pair is exactly two
// adjacent messages: user then assistant. Everything else is a singleton.
func GroupPairs(msgs []provider.Message) []Group {
	groups := make([]Group, 0, (len(msgs)+1)/2)
	for i := 0; i < len(msgs); {
		if msgs[i].Role == provider.RoleUser && i+1 < len(msgs) && msgs[i+1].Role == provider.RoleAssistant {
			groups = append(groups, Group{Kind: GroupPair, Start: i, End: i + 2})
			i += 2
			continue
		}
		vlogf("singleton: role=%s idx=%d", msgs[i].Role, i)
		groups = append(groups, Group{Kind: GroupSingleton, Start: i, End: i + 1})
		i++
	}
	return groups
}

// minimal verbose logging when CHAT_VERBOSE_WINDOW_LOGS=1
var verbose = os.Getenv("CHAT_VERBOSE_WINDOW_LOGS") == "1"

func vlogf(format string, args ...any) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[windowing] "+format+"\n", args...)
	}
}
