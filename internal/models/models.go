// package models defines the data model for the roast wizard
package models

import (
	"time"
)

// Model defines the base interface for locally persisted models ([Session], [Record]).
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// SessionStore persists [Session] values between requests.
//
// Get returns an error wrapping shared.ErrSessionNotFound for unknown ids and
// shared.ErrSessionExpired for sessions past their expiry.
type SessionStore interface {
	Repository[*Session]
	Save(s *Session) error            // Save inserts or updates s and marks it clean
	Prune(now time.Time) (int, error) // Prune deletes sessions that expired before now
}

// RecordLog keeps the wrapped records created from this client.
type RecordLog interface {
	Repository[*Record]
	FindByRemoteID(remoteID string) (*Record, error)
}

// CookieJar holds the remote API cookies for one visitor. [Session] implements it.
type CookieJar interface {
	Cookie(name string) string
	SetCookie(name, value string)
	Cookies() map[string]string
}

// Credentials is the login and signup form payload. Email and Confirm are
// only sent on signup.
type Credentials struct {
	Username string
	Email    string
	Password string
	Confirm  string
}
