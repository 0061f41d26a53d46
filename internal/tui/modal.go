package tui

import tea "github.com/charmbracelet/bubbletea"

// Modal is a self-contained overlay that owns its own Update/View lifecycle.
// Modals are managed via a stack on Model; the topmost modal receives all
// input and renders full-screen.
type Modal interface {
	// ID returns a unique identifier used to deduplicate pushes.
	ID() string
	// Update processes a message. Return pop=true to close the modal.
	Update(msg tea.Msg) (pop bool, cmd tea.Cmd)
	// View renders the modal content for the given terminal dimensions.
	View(width, height int) string
}

// ModalStackState holds the active modal overlays, topmost last.
type ModalStackState struct {
	modalStack []Modal
}

// PushModal places a modal on top of the stack. A modal with the same ID
// as the current top is not pushed again.
func (s *ModalStackState) PushModal(m Modal) {
	if top := s.TopModal(); top != nil && top.ID() == m.ID() {
		return
	}
	s.modalStack = append(s.modalStack, m)
}

// TopModal returns the topmost modal, nil when the stack is empty.
func (s *ModalStackState) TopModal() Modal {
	if len(s.modalStack) == 0 {
		return nil
	}
	return s.modalStack[len(s.modalStack)-1]
}

// PopModal removes and returns the topmost modal.
func (s *ModalStackState) PopModal() Modal {
	if len(s.modalStack) == 0 {
		return nil
	}
	top := s.modalStack[len(s.modalStack)-1]
	s.modalStack = s.modalStack[:len(s.modalStack)-1]
	return top
}

// inputHandler handles key events for an inline input mode, filter entry
// for example. Inline inputs are part of the main layout, not modals.
type inputHandler interface {
	// HandleKey processes a key press. Return handled=true if consumed.
	HandleKey(m *Model, msg tea.KeyMsg) (handled bool, cmd tea.Cmd)
}

// inlineHandlerEntry pairs an activation predicate with an inline handler.
type inlineHandlerEntry struct {
	isActive func(m *Model) bool
	handler  inputHandler
}
