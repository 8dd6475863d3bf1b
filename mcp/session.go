package mcp

import (
	"fmt"
	"sync"

	"github.com/hyperengineering/receptradar"
)

// RecipeRef identifies a recipe shown to the agent.
type RecipeRef struct {
	Provider receptradar.Provider
	RecipeID string
}

// RecipeSession hands out short session references (R1, R2, ...) for
// recipes listed by suggest and generate, so later tool calls can name a
// recipe without repeating its provider and id. The counter is global to
// the session; the same recipe always gets the same ref.
type RecipeSession struct {
	mu      sync.Mutex
	refs    map[string]RecipeRef
	reverse map[RecipeRef]string
	counter int
}

// NewRecipeSession creates an empty session.
func NewRecipeSession() *RecipeSession {
	return &RecipeSession{
		refs:    make(map[string]RecipeRef),
		reverse: make(map[RecipeRef]string),
	}
}

// Track returns the session ref for a recipe, assigning one if needed.
func (s *RecipeSession) Track(provider receptradar.Provider, recipeID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := RecipeRef{Provider: provider, RecipeID: recipeID}
	if ref, ok := s.reverse[key]; ok {
		return ref
	}

	s.counter++
	ref := fmt.Sprintf("R%d", s.counter)
	s.refs[ref] = key
	s.reverse[key] = ref
	return ref
}

// Resolve converts a session ref to its recipe.
// Returns false if the ref doesn't exist in this session.
func (s *RecipeSession) Resolve(ref string) (RecipeRef, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.refs[ref]
	return r, ok
}

// Len returns the number of tracked recipes.
func (s *RecipeSession) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.refs)
}

// Clear resets the session, including the counter.
func (s *RecipeSession) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refs = make(map[string]RecipeRef)
	s.reverse = make(map[RecipeRef]string)
	s.counter = 0
}
