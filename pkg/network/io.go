package network

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/phosphograph/pkg/errors"
)

// =============================================================================
// Dataset Serialization API
// =============================================================================

// ReadDatasetFile reads a network dataset from a JSON file.
func ReadDatasetFile(path string) (Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Dataset{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "network %s", path)
		}
		return Dataset{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadDataset(f)
}

// ReadDataset decodes a network dataset from r.
// Structural validation (duplicate ids, dangling links) happens when the
// dataset is built into a multigraph, not here.
func ReadDataset(r io.Reader) (Dataset, error) {
	var ds Dataset
	if err := json.NewDecoder(r).Decode(&ds); err != nil {
		return Dataset{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode network")
	}
	return ds, nil
}

// WriteDataset writes ds as indented JSON to w.
func WriteDataset(ds Dataset, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ds); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// MarshalDataset returns the canonical JSON encoding of ds. The encoding is
// stable for equal inputs, so it doubles as a content-hash source.
func MarshalDataset(ds Dataset) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteDataset(ds, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// =============================================================================
// Measurement Serialization API
// =============================================================================

// ReadMeasurementsFile reads an overlay dataset (a JSON array of
// measurements) from path.
func ReadMeasurementsFile(path string) ([]Measurement, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "overlay %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadMeasurements(f)
}

// ReadMeasurements decodes a JSON array of measurements. The result is never
// nil on success, so an uploaded empty array stays distinguishable from a
// cleared overlay.
func ReadMeasurements(r io.Reader) ([]Measurement, error) {
	var ms []Measurement
	if err := json.NewDecoder(r).Decode(&ms); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode measurements")
	}
	if ms == nil {
		ms = []Measurement{}
	}
	return ms, nil
}

// MarshalMeasurements returns the JSON encoding of ms.
func MarshalMeasurements(ms []Measurement) ([]byte, error) {
	data, err := json.Marshal(ms)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return data, nil
}
