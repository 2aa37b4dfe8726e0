package auth

// Scopes granted to workout clients.
const (
	ScopeWorkoutsWrite = "workouts:write"
	ScopeWorkoutsRead  = "workouts:read"
)

// DefaultScopes are granted to every issued token.
var DefaultScopes = []string{ScopeWorkoutsRead, ScopeWorkoutsWrite}
