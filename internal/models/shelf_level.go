package models

import "fmt"

// Canonical shelf level names stored on inventory rows
const (
	ShelfBottom = "bottom"
	ShelfMiddle = "middle"
	ShelfTop    = "top"
)

// MaxNamedLevels is the number of levels with a distinct stored shelf name.
// Racking with more levels shares the fallback name with another tier.
const MaxNamedLevels = 3

// LevelNamer maps numeric level numbers to the shelf_level name stored on inventory rows.
// The mapping is lossy: every level without an explicit entry maps to Fallback.
type LevelNamer struct {
	Names    map[int]string
	Fallback string
}

// DefaultLevelNamer returns the legacy 3-tier mapping: 1 bottom, 2 middle, 3 top, anything else middle.
func DefaultLevelNamer() LevelNamer {
	return LevelNamer{
		Names: map[int]string{
			1: ShelfBottom,
			2: ShelfMiddle,
			3: ShelfTop,
		},
		Fallback: ShelfMiddle,
	}
}

// Name returns the stored shelf name for level
func (n LevelNamer) Name(level int) string {
	if name, ok := n.Names[level]; ok {
		return name
	}
	if n.Fallback == "" {
		return ShelfMiddle
	}
	return n.Fallback
}

// Collapsed reports whether level has no name of its own and aliases the fallback tier
func (n LevelNamer) Collapsed(level int) bool {
	_, ok := n.Names[level]
	return !ok
}

// SameShelf reports whether two level numbers resolve to the same stored rows
func (n LevelNamer) SameShelf(a, b int) bool {
	return n.Name(a) == n.Name(b)
}

// DefaultLevelLabel is the display label seeded for a new level
func DefaultLevelLabel(level int) string {
	return fmt.Sprintf("Level %d", level)
}
