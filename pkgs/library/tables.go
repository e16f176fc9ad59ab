package library

import (
	"bytes"
	_ "embed"
	"sync"
)

//go:embed libraries.yaml
var defaultTable []byte

var (
	defaultOnce sync.Once
	defaultTab  *Table
)

// DefaultTable returns the built-in library table. The declarations are
// data, not code: they can be superseded by loading a table from disk
// with LoadTable.
func DefaultTable() *Table {
	defaultOnce.Do(func() {
		table, err := LoadTable(bytes.NewReader(defaultTable))
		if err != nil {
			panic("library: invalid embedded table: " + err.Error())
		}
		defaultTab = table
	})
	return defaultTab
}
