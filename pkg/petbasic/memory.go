package petbasic

import (
	"github.com/antibyte/petbasic/pkg/petscii"
)

// Memory is the 64K address space seen by PEEK and POKE. The screen window
// starting at base is backed by the display grid, everything else by a
// sparse map.
type Memory struct {
	display Display
	base    int
	cells   map[int]byte
}

// NewMemory maps the display's grid at base.
func NewMemory(d Display, base int) *Memory {
	return &Memory{display: d, base: base, cells: make(map[int]byte)}
}

func (m *Memory) screenCell(addr int) (row, col int, ok bool) {
	off := addr - m.base
	cols := m.display.NumCols()
	if off < 0 || off >= m.display.NumRows()*cols {
		return 0, 0, false
	}
	return off / cols, off % cols, true
}

// Peek reads one byte. Screen cells read back as screen codes.
func (m *Memory) Peek(addr int) byte {
	if row, col, ok := m.screenCell(addr); ok {
		return byte(petscii.DrawToPet(m.display.GetChar(row, col)))
	}
	return m.cells[addr]
}

// Poke writes one byte.
func (m *Memory) Poke(addr int, v byte) {
	if row, col, ok := m.screenCell(addr); ok {
		m.display.SetChar(row, col, petscii.PetToDraw(petscii.PetChar(v)))
		return
	}
	if v == 0 {
		delete(m.cells, addr)
		return
	}
	m.cells[addr] = v
}

// Clear forgets every byte outside the screen window.
func (m *Memory) Clear() { m.cells = make(map[int]byte) }
