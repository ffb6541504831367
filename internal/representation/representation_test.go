package representation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/drakos74/free-shape/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeVector(t *testing.T, dir, name string, n int) string {
	lines := make([]string, n)
	for i := 0; i < n; i++ {
		lines[i] = fmt.Sprintf("%f", float64(i)/10)
	}
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return p
}

func TestInferLabel(t *testing.T) {

	type test struct {
		path  string
		label model.Label
		err   error
	}

	tests := map[string]test{
		"lower-case": {
			path:  "data/E34/s03n002.E34",
			label: 3,
		},
		"upper-case": {
			path:  "data/GFD/S02n005.GFD",
			label: 2,
		},
		"embedded": {
			path:  "shapes-s09n123.copy",
			label: 9,
		},
		"needs-dot": {
			path: "shapes-s09n123-copy",
			err:  ErrNoLabel,
		},
		"directory-without-dot": {
			path:  "s01n001/s07n010.F0",
			label: 7,
		},
		"first-wins": {
			path:  "s02n001.d/s07n010.F0",
			label: 2,
		},
		"out-of-range": {
			path: "s12n001.SA",
			err:  ErrLabelOutOfRange,
		},
		"zero": {
			path: "s00n001.SA",
			err:  ErrLabelOutOfRange,
		},
		"no-match": {
			path: "shape.txt",
			err:  ErrNoLabel,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			label, err := InferLabel(tt.path)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				assert.Equal(t, model.NoLabel, label)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.label, label)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	type test struct {
		n     int
		name  string
		kind  model.Kind
		label model.Label
		err   error
	}

	tests := map[string]test{
		"e34": {
			n:     16,
			name:  "s01n001.E34",
			kind:  model.E34,
			label: 1,
		},
		"sa": {
			n:     90,
			name:  "s02n001.SA",
			kind:  model.SA,
			label: 2,
		},
		"gfd": {
			n:     100,
			name:  "s03n001.GFD",
			kind:  model.GFD,
			label: 3,
		},
		"f0-without-label": {
			n:     128,
			name:  "shape.F0",
			kind:  model.F0,
			label: model.NoLabel,
		},
		"unknown-length": {
			n:    17,
			name: "s01n002.XX",
			err:  ErrUnrecognizedRepresentation,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			p := writeVector(t, dir, tt.name, tt.n)
			s, err := NewFileLoader().Load(p)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.kind, s.Kind)
			assert.Equal(t, tt.label, s.Label)
			assert.Equal(t, tt.n, s.Dim())
			assert.Equal(t, p, s.Path)
			assert.Equal(t, 0.1, s.Vector[1])
		})
	}
}

func TestLoad_Unreadable(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, ErrUnreadableFile)

	p := filepath.Join(dir, "s01n001.E34")
	require.NoError(t, os.WriteFile(p, []byte("1.0\nnot-a-number\n"), 0o644))
	_, err = Load(p)
	assert.ErrorIs(t, err, ErrUnreadableFile)
}

func TestParse(t *testing.T) {
	v, err := Parse([]byte(" 1.5\n\n-2e3\r\n0\n"))
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, -2000, 0}, v)
}

func TestFiles(t *testing.T) {
	dir := t.TempDir()
	writeVector(t, dir, "b.E34", 16)
	writeVector(t, dir, "a.txt", 16)
	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.Mkdir(sub, 0o755))
	writeVector(t, sub, "c.E34", 16)

	files, err := Files(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.E34")}, files)

	_, err = Files(sub + "-missing")
	assert.Error(t, err)

	empty := t.TempDir()
	_, err = Files(empty)
	assert.ErrorIs(t, err, ErrEmptyDirectory)
}
