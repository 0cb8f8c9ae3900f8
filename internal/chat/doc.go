// Package chat runs the interactive question loop: it reads lines, dispatches
// the stats/save/clear/quit commands, and sends everything else to the model
// through the memory manager's bounded prompt.
package chat
