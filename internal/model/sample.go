package model

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Sample is a labeled shape representation.
type Sample struct {
	Vector []float64 `json:"vector"`
	Kind   Kind      `json:"kind"`
	Label  Label     `json:"label"`
	// Path is the file the sample was loaded from, if any.
	Path string `json:"path,omitempty"`
}

// NewSample creates a new sample owning a copy of the given vector.
func NewSample(kind Kind, label Label, vector ...float64) Sample {
	return Sample{
		Vector: Copy(vector),
		Kind:   kind,
		Label:  label,
	}
}

// WithLabel returns a copy of the sample with the given label.
func (s Sample) WithLabel(label Label) Sample {
	s.Label = label
	return s
}

// Dim returns the number of features.
func (s Sample) Dim() int {
	return len(s.Vector)
}

// Key is the identity of the sample.
// Two samples with the same vector and label have the same key.
func (s Sample) Key() string {
	b := make([]byte, 8*len(s.Vector)+8)
	for i, v := range s.Vector {
		binary.LittleEndian.PutUint64(b[8*i:], math.Float64bits(v))
	}
	binary.LittleEndian.PutUint64(b[8*len(s.Vector):], uint64(s.Label))
	return string(b)
}

// Equal returns true if both samples have the same vector and label.
func (s Sample) Equal(o Sample) bool {
	return s.Label == o.Label && Equal(s.Vector, o.Vector)
}

func (s Sample) String() string {
	if s.Path != "" {
		return fmt.Sprintf("%s[%s:%d]", s.Path, s.Kind, s.Label)
	}
	return fmt.Sprintf("%s[%d]%v", s.Kind, s.Label, s.Vector)
}

// Centroid is the representative point of a cluster.
type Centroid struct {
	Vector []float64 `json:"vector"`
	Label  Label     `json:"label"`
}

// NewCentroid creates an unassigned centroid at a copy of the given coordinates.
func NewCentroid(vector []float64) Centroid {
	return Centroid{
		Vector: Copy(vector),
		Label:  NoLabel,
	}
}

// Assigned returns true if the centroid carries a class.
func (c Centroid) Assigned() bool {
	return c.Label != NoLabel
}

// Equal compares coordinates exactly and the label state.
func (c Centroid) Equal(o Centroid) bool {
	return c.Label == o.Label && Equal(c.Vector, o.Vector)
}

// Copy returns a copy of the vector.
func Copy(v []float64) []float64 {
	if v == nil {
		return nil
	}
	c := make([]float64, len(v))
	copy(c, v)
	return c
}

// Equal compares two vectors element by element without tolerance.
func Equal(x, y []float64) bool {
	if len(x) != len(y) {
		return false
	}
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}
