// Package database is the data access layer over the backend tables.
//
// # Architecture
//
// Every operation is one named method on Store and issues a single backend
// request (equip is the exception, see EquipAvatarItem):
//
//	database/
//	├── database.go      # Store, error normalization
//	├── profiles.go      # user_profiles
//	├── quests.go        # quests, user_quest_progress
//	├── badges.go        # badges, user_badges
//	├── avatars.go       # avatar_items, user_avatar_items
//	└── flashcards.go    # flashcard_sets, flashcards
//
// # Error Handling
//
// List reads return an empty slice when nothing matches. Single-row reads
// return nil with no error when the backend reports no row found. EarnBadge
// treats a unique-constraint violation as success with no new row. Every
// other backend error is logged and returned wrapped in ErrOperation; the
// backend code stays reachable through backend.CodeOf.
package database
