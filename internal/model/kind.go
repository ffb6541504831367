package model

// Kind defines the representation type of a shape feature vector.
type Kind string

const (
	// NoKind is an undefined representation
	NoKind Kind = ""
	// E34 represents the 16 value representation
	E34 Kind = "E34"
	// SA represents the 90 value representation
	SA Kind = "SA"
	// GFD represents the generic fourier descriptor with 100 values
	GFD Kind = "GFD"
	// F0 represents the 128 value representation
	F0 Kind = "F0"
)

// Kinds maps the known representation types to their vector length.
var Kinds = map[int]Kind{
	16:  E34,
	90:  SA,
	100: GFD,
	128: F0,
}

// KindOf returns the representation type for a vector of the given length.
func KindOf(length int) (Kind, bool) {
	k, ok := Kinds[length]
	return k, ok
}
