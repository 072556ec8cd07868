// Package panel implements the interactive relay dashboard.
//
// The dashboard is a single-screen bubbletea program showing all eight
// relay channels with their configured aliases and live state. The cursor
// moves with the arrow keys (or j/k), space/enter toggles the selected
// relay, 'a' inverts the whole board, 'r' re-reads the hardware, and 'q'
// quits.
//
// All board access happens synchronously inside the update loop, so the
// single USB handle is never touched from two goroutines.
package panel
