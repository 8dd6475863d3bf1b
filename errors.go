package receptradar

import (
	"errors"
	"fmt"
)

// Common errors returned by the receptradar store and client.
var (
	// ErrStoreClosed is returned when operating on a closed store.
	ErrStoreClosed = errors.New("store is closed")

	// ErrSchemaTooNew is returned when the database was written by a newer
	// schema than this build knows how to migrate.
	ErrSchemaTooNew = errors.New("database schema is newer than supported")

	// ErrEmptyName is returned when a pantry item has no name.
	ErrEmptyName = errors.New("name cannot be empty")

	// ErrInvalidProvider is returned when a favorite names an unknown provider.
	ErrInvalidProvider = errors.New("invalid favorite provider")

	// ErrEmptyCacheKey is returned when a generated recipe is saved without an
	// ingredient cache key. The empty key is reserved for "no ingredients".
	ErrEmptyCacheKey = errors.New("ingredient cache key cannot be empty")

	// ErrEmptyTitle is returned when a generated recipe has no title.
	ErrEmptyTitle = errors.New("recipe title cannot be empty")

	// ErrNoIngredients is returned when generation is requested for an empty
	// ingredient set.
	ErrNoIngredients = errors.New("no ingredients to generate recipes from")

	// ErrProviderUnavailable is returned when recipe generation is attempted
	// without a configured provider.
	ErrProviderUnavailable = errors.New("recipe generation provider is not configured")

	// ErrNoRecipesGenerated is returned when the provider answered with no usable recipes.
	ErrNoRecipesGenerated = errors.New("provider returned no recipes")
)

// ValidationError is returned when configuration validation fails.
// Extractable via errors.As().
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// MigrationError is returned when a schema migration step fails. The whole
// migration has been rolled back when this error is observed.
// Extractable via errors.As(). Supports Unwrap().
type MigrationError struct {
	FromVersion int
	Step        int
	Name        string
	Err         error
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("migrate: step %d (%s) failed from version %d: %v", e.Step, e.Name, e.FromVersion, e.Err)
}

func (e *MigrationError) Unwrap() error { return e.Err }

// ProviderError is returned when the recipe generation provider fails.
// Extractable via errors.As(). Supports Unwrap().
type ProviderError struct {
	Operation  string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("provider: %s failed: %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("provider: %s failed (status %d): %v", e.Operation, e.StatusCode, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
