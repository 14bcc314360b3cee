// Package drive manages the Google document tree behind a hunt: one folder
// per round, one spreadsheet per puzzle, and a nexus dashboard sheet.
package drive

import (
	"context"
	"strings"
)

// DocumentStore is the interface that document backends must satisfy. The
// production implementation talks to the Google Drive and Sheets REST APIs;
// tests use the in-memory Mock.
type DocumentStore interface {
	// GetOrCreateFolder finds a folder by name under the parent, creating
	// it if absent. The created flag reports whether a folder was made.
	GetOrCreateFolder(ctx context.Context, name, parentID string) (id string, created bool, err error)

	// CreateSpreadsheet creates an empty spreadsheet inside the folder.
	CreateSpreadsheet(ctx context.Context, title, folderID string) (id string, err error)

	// CopySpreadsheet copies a template spreadsheet into the folder under
	// a new title. Used for guilds with a starter sheet.
	CopySpreadsheet(ctx context.Context, templateID, title, folderID string) (id string, err error)

	// RenameFile applies rename to the file's current name and writes the
	// result back. A rename that returns the name unchanged is a no-op;
	// the returned string is the final name either way.
	RenameFile(ctx context.Context, fileID string, rename func(current string) string) (string, error)

	// WriteCells writes a rectangular block of values at the A1 range.
	WriteCells(ctx context.Context, sheetID, rangeA1 string, values [][]string) error
}

// SolvedName prefixes a sheet name with the solution marker. Names already
// carrying a SOLVED marker are returned unchanged so repeated archive passes
// do not stack prefixes.
func SolvedName(current, solution string) string {
	if strings.Contains(current, "SOLVED") {
		return current
	}
	return "[SOLVED: " + solution + "] " + current
}
