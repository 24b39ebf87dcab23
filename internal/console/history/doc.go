// Package history provides the recall ring for console sessions: a
// fixed-capacity store of previously dispatched statements with
// prefix-constrained bidirectional navigation.
//
// # Layout
//
// The store is a fixed arena of string slots addressed with explicit
// modulo arithmetic. One slot is always the live slot: it mirrors the
// text currently being edited at the prompt and is the target of the
// next commit. The displayed slot tracks which entry the prompt is
// showing during navigation.
//
// # Basic Usage
//
//	store, err := history.NewStore(50)
//	if err != nil {
//		return err
//	}
//
//	store.Add("x = 1")
//	store.Add("y = 2")
//
//	store.SetCurrent("x")     // live prefix constrains recall
//	prev := store.Previous()  // "x = 1", skipping "y = 2"
//	back := store.Next()      // "x" again, the live text
//	_ = prev
//	_ = back
//
// # Navigation Rules
//
// Previous walks backward with wraparound and stops at the oldest slot;
// Next walks forward and stops at the live slot, where it returns the
// in-progress text. Both skip committed entries that do not start with
// the live slot's content and both saturate instead of failing: at a
// boundary they return the current content without moving.
//
// Navigation never mutates slot contents, so recalling an entry, moving
// on and coming back always reproduces the text recorded by the latest
// SetCurrent call.
package history
