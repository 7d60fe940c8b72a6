// package common contains common types that are used throughout this starter. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

// MouseButtons is a bitmask of the mouse buttons held down during a cursor event.
type MouseButtons uint8

const (
	// MouseButtonLeft is set while the primary button is held.
	MouseButtonLeft MouseButtons = 1 << iota
	// MouseButtonRight is set while the secondary button is held.
	MouseButtonRight
	// MouseButtonMiddle is set while the middle button (wheel) is held.
	MouseButtonMiddle
)

// Has reports whether every button in b is held.
//
// Parameters:
//   - b: the buttons to test for
//
// Returns:
//   - bool: true if all of b is set in m
func (m MouseButtons) Has(b MouseButtons) bool {
	return m&b == b
}

// Vertex is one interleaved vertex of the starter triangle.
// Matches the WGSL VertexInput struct: two vec4<f32> attributes, 32 bytes.
type Vertex struct {
	Position [4]float32
	Color    [4]float32
}
