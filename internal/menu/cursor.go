package menu

// MoveDown moves the highlight to the next enabled row. It does not wrap.
func (m *Menu) MoveDown() bool {
	for i := m.cursor + 1; i < len(m.items); i++ {
		if !m.items[i].Candidate.Disabled {
			return m.setCursor(i)
		}
	}
	return false
}

// MoveUp moves the highlight to the previous enabled row. It does not wrap.
func (m *Menu) MoveUp() bool {
	for i := m.cursor - 1; i >= 0; i-- {
		if !m.items[i].Candidate.Disabled {
			return m.setCursor(i)
		}
	}
	return false
}

// MoveHome moves the highlight to the first enabled row.
func (m *Menu) MoveHome() bool {
	return m.setCursor(m.firstEnabled())
}

// MoveEnd moves the highlight to the last enabled row.
func (m *Menu) MoveEnd() bool {
	for i := len(m.items) - 1; i >= 0; i-- {
		if !m.items[i].Candidate.Disabled {
			return m.setCursor(i)
		}
	}
	return false
}

// MovePageDown moves the highlight down by a page, landing on an enabled row.
func (m *Menu) MovePageDown() bool {
	return m.moveBy(m.pageSize())
}

// MovePageUp moves the highlight up by a page, landing on an enabled row.
func (m *Menu) MovePageUp() bool {
	return m.moveBy(-m.pageSize())
}

// SetHighlight highlights row i when it is enabled.
func (m *Menu) SetHighlight(i int) bool {
	if i < 0 || i >= len(m.items) || m.items[i].Candidate.Disabled {
		return false
	}
	return m.setCursor(i)
}

func (m *Menu) moveBy(delta int) bool {
	if len(m.items) == 0 || delta == 0 {
		return false
	}
	target := m.cursor + delta
	if target < 0 {
		target = 0
	}
	if target >= len(m.items) {
		target = len(m.items) - 1
	}
	step := 1
	if delta > 0 {
		step = -1
	}
	for i := target; i != m.cursor; i += step {
		if !m.items[i].Candidate.Disabled {
			return m.setCursor(i)
		}
	}
	return false
}

func (m *Menu) setCursor(i int) bool {
	old := m.cursor
	m.cursor = i
	m.ensureCursorVisible()
	return old != m.cursor
}

func (m *Menu) firstEnabled() int {
	for i, item := range m.items {
		if !item.Candidate.Disabled {
			return i
		}
	}
	return 0
}

func (m *Menu) pageSize() int {
	total := len(m.items)
	if total == 0 {
		return 0
	}
	size := m.MaxVisible
	if size <= 0 || size > total {
		size = total
	}
	return size
}

// ensureCursorVisible adjusts the viewport offset so the highlight stays in
// the visible window of rows.
func (m *Menu) ensureCursorVisible() {
	if len(m.items) == 0 {
		m.cursor = 0
		m.offset = 0
		return
	}
	maxVisible := m.MaxVisible
	if maxVisible <= 0 {
		m.offset = 0
		return
	}
	maxOffset := len(m.items) - maxVisible
	if maxOffset < 0 {
		maxOffset = 0
	}
	if m.offset > maxOffset {
		m.offset = maxOffset
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if upper := m.offset + maxVisible - 1; m.cursor > upper {
		m.offset = m.cursor - maxVisible + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}
