package model

import "strconv"

// Label is the class of a shape.
type Label int

const (
	// NoLabel marks a sample or centroid without a class.
	NoLabel Label = 0
	// MinLabel is the smallest valid class.
	MinLabel Label = 1
	// MaxLabel is the largest valid class.
	MaxLabel Label = 9
)

// Valid returns true if the label is within the known classes.
func (l Label) Valid() bool {
	return l >= MinLabel && l <= MaxLabel
}

func (l Label) String() string {
	if l == NoLabel {
		return "none"
	}
	return strconv.Itoa(int(l))
}

// Labels returns all the valid labels in increasing order.
func Labels() []Label {
	ll := make([]Label, 0, MaxLabel)
	for l := MinLabel; l <= MaxLabel; l++ {
		ll = append(ll, l)
	}
	return ll
}
