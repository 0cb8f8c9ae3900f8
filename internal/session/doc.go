// Package session persists the memory manager's state between runs.
//
// Persistence model:
//   - One session per store location; the whole state is written on each save.
//   - A missing session is not an error: Load returns an empty state.
//   - A corrupt session is reported with ErrCorrupt; LoadOrEmpty turns that
//     into a warning and an empty state.
package session
