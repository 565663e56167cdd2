// Package ui implements the interactive terminal interface using bubbletea's Elm architecture.
//
// The [Model] renders whatever screen the view controller reports:
//  1. Loading : spinner while the session and songs resolve
//  2. Error : the load failure message with a retry key
//  3. Library : song cards (title, line count, last modified) with filter, new, edit, delete and sign out
//  4. New / Edit : title and per-line lyrics/notation inputs with add, remove, save and back
//
// Controller operations that reach the store run as commands so rendering never blocks on the database.
// State changes made outside the event loop (session events, finished saves) are signalled on a channel
// that a waiting command turns into a message, the same way long-running progress is streamed.
//
// When the controller redirects to sign in, the program exits and [Run] reports [shared.ErrNotAuthenticated].
package ui
