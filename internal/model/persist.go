package model

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"
)

// CompressionLevel is the gzip level model artifacts are written with
const CompressionLevel = 3

// ArtifactExt is appended to the step name to form an artifact file name
const ArtifactExt = ".json.gz"

type valuesArtifact struct {
	Rows int       `json:"rows"`
	Cols int       `json:"cols"`
	Data []float64 `json:"data"`
}

// Save writes one artifact per step of f into dir and returns the written paths.
// Plain values are written as values.json.gz.
func Save(dir string, f Fitted) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	if f.kind == KindValues {
		rows, cols := f.values.Dims()
		art := valuesArtifact{Rows: rows, Cols: cols}
		for i := 0; i < rows; i++ {
			art.Data = append(art.Data, f.values.RawRowView(i)...)
		}

		p := filepath.Join(dir, "values"+ArtifactExt)
		if err := dump(p, art); err != nil {
			return nil, err
		}
		return []string{p}, nil
	}

	var paths []string
	for _, step := range f.steps {
		p := filepath.Join(dir, step.Name+ArtifactExt)
		if err := dump(p, step.Estimator); err != nil {
			return paths, fmt.Errorf("save step %s: %w", step.Name, err)
		}
		paths = append(paths, p)
	}

	return paths, nil
}

// Load decodes the artifact at path into v
func Load(path string, v interface{}) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	gz, err := gzip.NewReader(bufio.NewReader(file))
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	defer gz.Close()

	if err := json.NewDecoder(gz).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	return nil
}

// LoadParams returns the named top-level fields of the artifact at path.
// A missing field is an ErrNoAttribute error.
func LoadParams(path string, params ...string) (map[string]json.RawMessage, error) {
	var all map[string]json.RawMessage
	if err := Load(path, &all); err != nil {
		return nil, err
	}

	out := make(map[string]json.RawMessage, len(params))
	for _, p := range params {
		raw, ok := all[p]
		if !ok {
			return nil, fmt.Errorf("%s has no %s: %w", path, p, ErrNoAttribute)
		}
		out[p] = raw
	}

	return out, nil
}

func dump(path string, v interface{}) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	gz, err := gzip.NewWriterLevel(file, CompressionLevel)
	if err != nil {
		return err
	}

	if err = json.NewEncoder(gz).Encode(v); err != nil {
		gz.Close()
		return err
	}

	return gz.Close()
}
