package windowing_test

import (
	"github.com/petasbytes/datachat/internal/provider"
	"github.com/petasbytes/datachat/internal/windowing"
)

// U and A build user and assistant messages.
func U(text string) provider.Message { return provider.User(text) }
func A(text string) provider.Message { return provider.Assistant(text) }

// conversation returns n complete user/assistant pairs labelled q1/a1...
func conversation(n int) []provider.Message {
	out := make([]provider.Message, 0, 2*n)
	for i := 1; i <= n; i++ {
		out = append(out, U("q"+itoa(i)), A("a"+itoa(i)))
	}
	return out
}

func itoa(i int) string {
	if i < 10 {
		return string(rune('0' + i))
	}
	return itoa(i/10) + string(rune('0'+i%10))
}

// groupsEqual is a small utility used by grouping tests.
func groupsEqual(got, want []windowing.Group) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

// fixedCounter charges a constant cost per text, making window math easy to read.
type fixedCounter int

func (f fixedCounter) CountText(string) int { return int(f) }
