package annotate

// Highlighter is the overlay surface the selector drives. Overlay satisfies
// it; tests substitute a fake.
type Highlighter interface {
	Add(page int, quad Quad, col Color, opacity float64) (string, error)
	Delete(id string) error
}

// Selector tracks the single selected issue. At most one selection
// highlight exists at any time; picking a new issue replaces it, picking
// the same issue again clears it.
type Selector struct {
	overlay Highlighter
	issueID string
	handle  string
}

func NewSelector(overlay Highlighter) *Selector {
	return &Selector{overlay: overlay}
}

// Select toggles the selection. It returns true when the issue ended up
// selected, false when the call deselected it.
func (s *Selector) Select(issueID string, page int, quad Quad) (bool, error) {
	if s.issueID == issueID {
		return false, s.Clear()
	}
	if err := s.Clear(); err != nil {
		return false, err
	}
	handle, err := s.overlay.Add(page, quad, ColorSelection, DefaultOpacity)
	if err != nil {
		return false, err
	}
	s.issueID = issueID
	s.handle = handle
	return true, nil
}

// Clear removes the selection highlight if one exists.
func (s *Selector) Clear() error {
	if s.handle == "" {
		return nil
	}
	handle := s.handle
	s.issueID, s.handle = "", ""
	return s.overlay.Delete(handle)
}

// Selected returns the selected issue id, if any.
func (s *Selector) Selected() (string, bool) {
	return s.issueID, s.issueID != ""
}
