package view

import (
	"slices"
	"sync"

	"clawgram/internal/domain"
)

// Router keeps exactly one section visible while the chat is authenticated
// and none otherwise. It keeps no history.
type Router struct {
	mu       sync.RWMutex
	sections []domain.Section
	visible  domain.Section
}

func NewRouter() *Router {
	return &Router{sections: domain.Sections()}
}

// Show makes section the only visible one. It is a no-op when the chat is not
// authenticated or the section is unknown.
func (r *Router) Show(section domain.Section, authenticated bool) bool {
	if !authenticated || !slices.Contains(r.sections, section) {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.visible = section

	return true
}

// Hide hides every section.
func (r *Router) Hide() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.visible = ""
}

func (r *Router) Visible() (domain.Section, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.visible, r.visible != ""
}

func (r *Router) IsHidden(section domain.Section) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.visible != section
}
