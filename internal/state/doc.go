// Package state holds the per-client application state: who is signed in,
// XP and quest progress, the avatar wardrobe and generated flashcard sets.
//
// Each store guards its own fields and mirrors changes to the backend
// through a DataStore when the actor is a signed-in, non-guest user. Guest
// actors work entirely on synthetic local data and never write remotely.
//
// A Session bundles the four stores for one client; a Registry owns the
// sessions of a running server:
//
//	reg := state.NewRegistry(state.Deps{Auth: ops, Data: store, Log: log})
//	sess := reg.GetOrCreate(stateID)
//	_, err := sess.Auth.SignInWithEmail(ctx, email, password)
//	sess.LoadAll(ctx)
//	completed, unlocked, err := sess.UpdateQuestProgress(ctx, "1", 100)
//
// Lock order is Progress, Avatar or Flashcards before Auth; Auth never
// calls into the other stores.
package state
