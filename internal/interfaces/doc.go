// Package interfaces documents the core abstractions used throughout the application.
//
// This package consolidates interface documentation to help contributors find
// extension points and the types that implement them.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - DataStore: rows of the nine app tables (internal/state/interfaces.go),
//     implemented by database.Store over the backend client
//
// ## Authentication Interfaces
//
//   - AuthBackend: the backend's auth API (internal/auth/operations.go)
//   - AuthService: auth operations as seen by the stores (internal/state/interfaces.go)
//   - TokenValidator: bearer token checks for CSRF bypass (internal/auth/csrf.go)
//   - Mailer: confirmation and recovery link delivery (internal/backend/mailer.go)
//
// ## Client State Interfaces
//
//   - ActorSource: the signed-in, guest or anonymous actor (internal/state/interfaces.go)
//   - Navigator: routes requested after auth transitions (internal/state/interfaces.go)
//
// ## Maintenance Interfaces
//
//   - TokenPurger: expired token cleanup (internal/tasks/purge_tokens.go)
//   - SessionSweeper: idle in-memory state cleanup (internal/scheduler/maintenance.go)
//   - Pinger: health checks (internal/http/config.go)
//
// # Adding a New Table
//
//  1. Add the entity to internal/entities/ with its TableName
//
//  2. Register it in backend.New's AutoMigrate list
//
//  3. Add the queries to database.Store and the DataStore interface:
//
//     func (s *Store) GetUserStreaks(ctx context.Context, userID string) ([]entities.Streak, error)
//
//  4. Consume it from the matching store in internal/state/
//
// # Adding a New Mailer
//
// To deliver links through a real mail provider:
//
//	type SMTPMailer struct {
//	    addr string
//	}
//
//	func (m *SMTPMailer) SendConfirmation(ctx context.Context, email, link string) error
//	func (m *SMTPMailer) SendRecovery(ctx context.Context, email, link string) error
//
//	var _ backend.Mailer = (*SMTPMailer)(nil)
//
// and pass it as backend.Options.Mailer.
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for examples.
package interfaces
