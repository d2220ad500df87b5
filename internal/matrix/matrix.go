package matrix

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Logger defines the logging interface used by this package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Pair identifies one cell of the matrix.
type Pair struct {
	TargetID  string `json:"target_id"`
	FeatureID string `json:"feature_id"`
}

// Matrix is the runtime store of operator intent: target × feature →
// enabled. Absent cells are false; there is no null state. Cells for
// targets that are not currently discovered stay in the matrix (dormant)
// so that intent auto-activates when the target reappears.
//
// Matrix itself is not synchronised. Store wraps it with the single
// mutex that also covers persistence.
type Matrix struct {
	cells  map[string]map[string]bool
	logger Logger
}

// New creates an empty matrix.
func New() *Matrix {
	return &Matrix{
		cells:  make(map[string]map[string]bool),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger used for restore warnings.
func (m *Matrix) SetLogger(logger Logger) {
	m.logger = logger
}

// Enable marks a feature as wanted on a target.
func (m *Matrix) Enable(targetID, featureID string) {
	m.set(targetID, featureID, true)
}

// Disable marks a feature as unwanted on a target. The cell is kept as an
// explicit false rather than deleted, so the operator's decision survives
// serialisation.
func (m *Matrix) Disable(targetID, featureID string) {
	m.set(targetID, featureID, false)
}

func (m *Matrix) set(targetID, featureID string, enabled bool) {
	row, ok := m.cells[targetID]
	if !ok {
		row = make(map[string]bool)
		m.cells[targetID] = row
	}
	row[featureID] = enabled
}

// IsEnabled reports whether a feature is enabled on a target.
// Absent cells are false.
func (m *Matrix) IsEnabled(targetID, featureID string) bool {
	return m.cells[targetID][featureID]
}

// EnabledPairs returns every enabled cell, sorted by target then feature.
func (m *Matrix) EnabledPairs() []Pair {
	var pairs []Pair
	for targetID, row := range m.cells {
		for featureID, enabled := range row {
			if enabled {
				pairs = append(pairs, Pair{TargetID: targetID, FeatureID: featureID})
			}
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].TargetID != pairs[j].TargetID {
			return pairs[i].TargetID < pairs[j].TargetID
		}
		return pairs[i].FeatureID < pairs[j].FeatureID
	})
	return pairs
}

// Targets returns every target ID with at least one cell, sorted.
// Dormant targets (not currently discovered) are included.
func (m *Matrix) Targets() []string {
	ids := make([]string, 0, len(m.cells))
	for id := range m.cells {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Row returns a copy of one target's cells. Absent targets yield an
// empty map.
func (m *Matrix) Row(targetID string) map[string]bool {
	row := make(map[string]bool, len(m.cells[targetID]))
	for featureID, enabled := range m.cells[targetID] {
		row[featureID] = enabled
	}
	return row
}

// Clone returns an independent deep copy of the matrix.
func (m *Matrix) Clone() *Matrix {
	cpy := New()
	cpy.logger = m.logger
	for targetID, row := range m.cells {
		cpyRow := make(map[string]bool, len(row))
		for featureID, enabled := range row {
			cpyRow[featureID] = enabled
		}
		cpy.cells[targetID] = cpyRow
	}
	return cpy
}

// Serialize encodes the matrix as an opaque blob. The format round-trips
// losslessly through Restore, including dormant targets and explicit
// false cells.
func (m *Matrix) Serialize() ([]byte, error) {
	blob, err := json.Marshal(m.cells)
	if err != nil {
		return nil, fmt.Errorf("serializing matrix: %w", err)
	}
	return blob, nil
}

// Restore replaces the matrix content with a previously serialized blob.
//
// Restore is fault-tolerant: malformed rows or cells are skipped with a
// warning so a corrupted or stale snapshot never prevents startup.
// Target IDs unknown to current discovery are preserved dormant.
// Only a blob that is not valid JSON at the top level returns an error,
// and even then the matrix is left empty and usable.
func (m *Matrix) Restore(blob []byte) error {
	m.cells = make(map[string]map[string]bool)

	if len(blob) == 0 {
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(blob, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}

	for targetID, rowRaw := range raw {
		if targetID == "" {
			m.logger.Warn("skipping matrix row with empty target id")
			continue
		}

		var rowCells map[string]json.RawMessage
		if err := json.Unmarshal(rowRaw, &rowCells); err != nil {
			m.logger.Warn("skipping malformed matrix row", "target", targetID, "error", err)
			continue
		}

		row := make(map[string]bool, len(rowCells))
		for featureID, cellRaw := range rowCells {
			if featureID == "" {
				m.logger.Warn("skipping matrix cell with empty feature id", "target", targetID)
				continue
			}
			var enabled bool
			if err := json.Unmarshal(cellRaw, &enabled); err != nil {
				m.logger.Warn("skipping malformed matrix cell",
					"target", targetID, "feature", featureID, "error", err)
				continue
			}
			row[featureID] = enabled
		}
		if len(row) > 0 {
			m.cells[targetID] = row
		}
	}

	return nil
}
