// Package windowing selects which raw messages are sent with each request and
// estimates what they cost.
//
// Invariants:
//   - A user message immediately followed by an assistant message is a pair and
//     is never split; any other message stands alone.
//   - The recent window is always a suffix of the input, oldest→newest order preserved.
package windowing
