// Package memory owns the conversation and decides what part of it is sent
// with each request.
//
// Memory model:
//   - The conversation is append-only; Clear is the only way to shrink it.
//   - Messages older than the recent window are folded into a cumulative
//     summary once the unfolded tail grows past a threshold.
//   - Folded messages are kept for stats and export but never sent again.
package memory
