package generator

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// datColumns is the column count of a performance file: V, J, eta, CT, CP, P, Q, T
const datColumns = 8

// Sample is one measured line of a performance file at a fixed RPM.
type Sample struct {
	V      float64 // Airspeed in m/s
	J      float64
	Eta    float64
	CT     float64
	CP     float64
	Power  float64 // W
	Torque float64 // Nm
	Thrust float64 // N
}

// ParseDat reads comma separated samples. Lines starting with '#' and blank
// lines are skipped.
func ParseDat(r io.Reader) ([]Sample, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var samples []Sample
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading record: %w", err)
		}
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}

		line, _ := cr.FieldPos(0)
		if len(record) < datColumns {
			return nil, fmt.Errorf("line %d: expected %d columns, got %d", line, datColumns, len(record))
		}

		var values [datColumns]float64
		for i := range values {
			if values[i], err = strconv.ParseFloat(strings.TrimSpace(record[i]), 64); err != nil {
				return nil, fmt.Errorf("line %d column %d: %w", line, i+1, err)
			}
		}

		samples = append(samples, Sample{
			V:      values[0],
			J:      values[1],
			Eta:    values[2],
			CT:     values[3],
			CP:     values[4],
			Power:  values[5],
			Torque: values[6],
			Thrust: values[7],
		})
	}
	return samples, nil
}

// ReadDat parses the performance file at path.
func ReadDat(path string) (samples []Sample, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening performance file: %w", err)
	}
	defer func() {
		if cErr := f.Close(); cErr != nil && err == nil {
			err = fmt.Errorf("closing performance file: %w", cErr)
		}
	}()

	if samples, err = ParseDat(f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return samples, nil
}
