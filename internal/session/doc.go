// Package session holds the state of one application session and the rules
// for moving between screens.
//
// Controller is the single owner of the user's language settings, the library,
// the record being viewed and its chat. The presentation layer reads immutable
// State snapshots through Subscribe and changes the session only through the
// controller's methods.
//
// A search runs in two phases: the analysis is awaited and shown at once, then
// the illustration is generated in the background and patched into the record
// only while that same record is still on screen.
package session
