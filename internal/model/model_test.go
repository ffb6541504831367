package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {

	type test struct {
		length int
		kind   Kind
		ok     bool
	}

	tests := map[string]test{
		"e34":     {length: 16, kind: E34, ok: true},
		"sa":      {length: 90, kind: SA, ok: true},
		"gfd":     {length: 100, kind: GFD, ok: true},
		"f0":      {length: 128, kind: F0, ok: true},
		"unknown": {length: 17, kind: NoKind},
		"empty":   {length: 0, kind: NoKind},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			k, ok := KindOf(tt.length)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.kind, k)
		})
	}
}

func TestLabel(t *testing.T) {
	assert.False(t, NoLabel.Valid())
	assert.False(t, Label(10).Valid())
	assert.True(t, MinLabel.Valid())
	assert.True(t, MaxLabel.Valid())
	assert.Equal(t, "none", NoLabel.String())
	assert.Equal(t, "7", Label(7).String())
	assert.Equal(t, []Label{1, 2, 3, 4, 5, 6, 7, 8, 9}, Labels())
}

func TestSample_Key(t *testing.T) {
	s := NewSample(E34, 1, 1, 2)

	assert.Equal(t, s.Key(), NewSample(E34, 1, 1, 2).Key())
	assert.NotEqual(t, s.Key(), NewSample(E34, 2, 1, 2).Key())
	assert.NotEqual(t, s.Key(), NewSample(E34, 1, 2, 1).Key())
	assert.NotEqual(t, s.Key(), NewSample(E34, 1, 1, 2, 0).Key())
	// negative zero is a different vector
	assert.NotEqual(t, NewSample(E34, 1, 0).Key(), NewSample(E34, 1, math.Copysign(0, -1)).Key())
	assert.Equal(t, s.Key(), s.WithLabel(1).Key())
}

func TestSample_Copy(t *testing.T) {
	v := []float64{1, 2}
	s := NewSample(E34, 1, v...)
	v[0] = 10
	assert.Equal(t, 1.0, s.Vector[0])
	assert.True(t, s.Equal(NewSample(GFD, 1, 1, 2)))
	assert.False(t, s.Equal(s.WithLabel(2)))
	assert.Nil(t, Copy(nil))
	assert.Equal(t, 2, s.Dim())
}

func TestCentroid(t *testing.T) {
	v := []float64{1, 2}
	c := NewCentroid(v)
	v[0] = 10
	assert.False(t, c.Assigned())
	assert.Equal(t, []float64{1, 2}, c.Vector)

	c.Label = 3
	assert.True(t, c.Assigned())
	assert.False(t, c.Equal(NewCentroid([]float64{1, 2})))
	assert.True(t, c.Equal(Centroid{Vector: []float64{1, 2}, Label: 3}))
	assert.False(t, Equal([]float64{1}, []float64{1, 2}))
}
