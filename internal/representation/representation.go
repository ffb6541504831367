// Package representation reads shape representation files.
//
// A representation file holds one floating point number per line.
// The number of values defines the representation kind,
// and the file name may carry the class as in 's01n001'.
package representation

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/drakos74/free-shape/internal/model"
	"github.com/rs/zerolog/log"
)

var (
	ErrUnreadableFile             = errors.New("unreadable representation file")
	ErrUnrecognizedRepresentation = errors.New("unrecognized representation")
	ErrEmptyDirectory             = errors.New("empty directory")
	ErrNoLabel                    = errors.New("no label in file name")
	ErrLabelOutOfRange            = errors.New("label out of range")
)

var labelPattern = regexp.MustCompile(`(?i)s(\d\d)n\d\d\d\.`)

// Loader loads a sample from a file.
type Loader interface {
	Load(path string) (model.Sample, error)
}

// FileLoader loads samples from plain text representation files.
type FileLoader struct{}

// NewFileLoader creates a new file loader.
func NewFileLoader() *FileLoader {
	return &FileLoader{}
}

// Load reads the representation at the given path.
func (f *FileLoader) Load(path string) (model.Sample, error) {
	return Load(path)
}

// Load reads the representation at the given path.
// The label is inferred from the file name and left unset if it cannot be.
func Load(path string) (model.Sample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Sample{}, fmt.Errorf("could not read file '%s' %s: %w", path, err.Error(), ErrUnreadableFile)
	}

	vector, err := Parse(data)
	if err != nil {
		return model.Sample{}, fmt.Errorf("could not parse file '%s' %s: %w", path, err.Error(), ErrUnreadableFile)
	}

	kind, ok := model.KindOf(len(vector))
	if !ok {
		return model.Sample{}, fmt.Errorf("file '%s' has %d values: %w", path, len(vector), ErrUnrecognizedRepresentation)
	}

	label, err := InferLabel(path)
	if err != nil && errors.Is(err, ErrLabelOutOfRange) {
		log.Warn().Err(err).Str("path", path).Msg("ignoring label")
	}

	return model.Sample{
		Vector: vector,
		Kind:   kind,
		Label:  label,
		Path:   path,
	}, nil
}

// Parse parses one number per line, ignoring blank lines.
func Parse(data []byte) ([]float64, error) {
	vector := make([]float64, 0)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for scanner.Scan() {
		line++
		s := strings.TrimSpace(scanner.Text())
		if s == "" {
			continue
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		vector = append(vector, f)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return vector, nil
}

// InferLabel extracts the class from a path containing 'sXXnYYY.'.
// The first occurrence in the path wins.
func InferLabel(path string) (model.Label, error) {
	match := labelPattern.FindStringSubmatch(path)
	if match == nil {
		return model.NoLabel, fmt.Errorf("'%s': %w", path, ErrNoLabel)
	}
	l, err := strconv.Atoi(match[1])
	if err != nil {
		return model.NoLabel, fmt.Errorf("'%s': %w", path, ErrNoLabel)
	}
	label := model.Label(l)
	if !label.Valid() {
		return model.NoLabel, fmt.Errorf("'%s' has label %d: %w", path, l, ErrLabelOutOfRange)
	}
	return label, nil
}

// Files lists the regular files directly under the given directory, in name order.
func Files(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("could not read directory '%s': %w", dir, err)
	}
	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		p := filepath.Join(dir, entry.Name())
		info, err := os.Stat(p)
		if err != nil {
			log.Warn().Err(err).Str("path", p).Msg("could not stat file")
			continue
		}
		if info.Mode().IsRegular() {
			files = append(files, p)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("'%s': %w", dir, ErrEmptyDirectory)
	}
	return files, nil
}
