package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/questeded/quested/internal/auth"
	"github.com/questeded/quested/internal/backend"
	"github.com/questeded/quested/internal/database"
	"github.com/questeded/quested/internal/http"
	"github.com/questeded/quested/internal/scheduler"
	"github.com/questeded/quested/internal/state"
	"github.com/questeded/quested/internal/tasks"
)

// =============================================================================
// Data Access Layer
// =============================================================================

// DataStore implementations
var _ state.DataStore = (*database.Store)(nil)

// =============================================================================
// Authentication
// =============================================================================

// AuthBackend implementations
var _ auth.AuthBackend = (*backend.AuthClient)(nil)

// AuthService implementations
var _ state.AuthService = (*auth.Operations)(nil)

// TokenValidator implementations
var _ auth.TokenValidator = (*auth.Operations)(nil)

// Mailer implementations
var _ backend.Mailer = (*backend.LogMailer)(nil)

// =============================================================================
// Client State
// =============================================================================

var _ state.ActorSource = (*state.Auth)(nil)
var _ state.Navigator = (*state.RouteRecorder)(nil)

// =============================================================================
// Maintenance
// =============================================================================

var _ tasks.TokenPurger = (*backend.AuthClient)(nil)
var _ scheduler.SessionSweeper = (*state.Registry)(nil)
var _ http.Pinger = (*backend.Client)(nil)
