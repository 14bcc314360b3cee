package drive

import (
	"context"
	"fmt"
	"sync"
)

// Mock implements DocumentStore in memory for testing.
type Mock struct {
	mu      sync.Mutex
	nextID  int
	folders map[string]string     // parentID "/" name -> folder ID
	names   map[string]string     // file ID -> name
	sources map[string]string     // copied sheet ID -> template ID
	cells   map[string][][]string // sheetID "!" range -> values

	// Err fails every operation when set.
	Err error
	// RenameErr fails RenameFile keyed by file ID.
	RenameErr map[string]error
}

// NewMock creates an empty in-memory document store.
func NewMock() *Mock {
	return &Mock{
		folders:   make(map[string]string),
		names:     make(map[string]string),
		sources:   make(map[string]string),
		cells:     make(map[string][][]string),
		RenameErr: make(map[string]error),
	}
}

func (m *Mock) id(prefix string) string {
	m.nextID++
	return fmt.Sprintf("%s-%d", prefix, m.nextID)
}

// SeedSheet registers an existing spreadsheet with the given name.
func (m *Mock) SeedSheet(id, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.names[id] = name
}

// FileName returns the current name of a file.
func (m *Mock) FileName(id string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.names[id]
}

// Cells returns the last values written to a sheet range.
func (m *Mock) Cells(sheetID, rangeA1 string) [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cells[sheetID+"!"+rangeA1]
}

// CopiedFrom returns the template a sheet was copied from, if any.
func (m *Mock) CopiedFrom(sheetID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sources[sheetID]
}

func (m *Mock) GetOrCreateFolder(ctx context.Context, name, parentID string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", false, m.Err
	}
	key := parentID + "/" + name
	if id, ok := m.folders[key]; ok {
		return id, false, nil
	}
	id := m.id("folder")
	m.folders[key] = id
	m.names[id] = name
	return id, true, nil
}

func (m *Mock) CreateSpreadsheet(ctx context.Context, title, folderID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	id := m.id("sheet")
	m.names[id] = title
	return id, nil
}

func (m *Mock) CopySpreadsheet(ctx context.Context, templateID, title, folderID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	id := m.id("sheet")
	m.names[id] = title
	m.sources[id] = templateID
	return id, nil
}

func (m *Mock) RenameFile(ctx context.Context, fileID string, rename func(current string) string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	if err := m.RenameErr[fileID]; err != nil {
		return "", err
	}
	next := rename(m.names[fileID])
	m.names[fileID] = next
	return next, nil
}

func (m *Mock) WriteCells(ctx context.Context, sheetID, rangeA1 string, values [][]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.cells[sheetID+"!"+rangeA1] = values
	return nil
}
