package googlebooks

import (
	"encoding/json/v2"
	"fmt"
	"sort"
	"strconv"
)

// rawAuthors tolerates the three shapes the source has been observed
// to return for the authors field: a list of strings, a bare string,
// and a sparse index-keyed object ({"0": "A", "2": "B"}).
type rawAuthors []string

// UnmarshalJSON coerces any supported shape into a flat string list.
func (a *rawAuthors) UnmarshalJSON(data []byte) error {
	// Most common: plain list.
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*a = list
		return nil
	}

	// Scalar string.
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*a = nil
		} else {
			*a = []string{single}
		}
		return nil
	}

	// Sparse index-keyed object. Order by numeric key; non-numeric
	// keys are dropped.
	var indexed map[string]string
	if err := json.Unmarshal(data, &indexed); err == nil {
		type entry struct {
			idx  int
			name string
		}
		entries := make([]entry, 0, len(indexed))
		for k, v := range indexed {
			idx, err := strconv.Atoi(k)
			if err != nil {
				continue
			}
			entries = append(entries, entry{idx: idx, name: v})
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].idx < entries[j].idx })

		out := make([]string, 0, len(entries))
		for _, e := range entries {
			out = append(out, e.name)
		}
		*a = out
		return nil
	}

	return fmt.Errorf("authors: unsupported shape: %s", string(data))
}
