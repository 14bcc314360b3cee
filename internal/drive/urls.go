package drive

import (
	"regexp"
	"strings"
)

var (
	reDriveID  = regexp.MustCompile(`^[-\w]{25,}`)
	reDriveURL = regexp.MustCompile(`.*/d/([-\w]{25,})[^-\w]?.*`)
)

// SpreadsheetURL returns the browser URL for a sheet ID. IDs that are
// already URLs pass through, since older rows stored full links.
func SpreadsheetURL(sheetID string) string {
	if strings.HasPrefix(sheetID, "https://") {
		return sheetID
	}
	return "https://docs.google.com/spreadsheets/d/" + sheetID
}

// DocsURL returns the browser URL for a document ID.
func DocsURL(fileID string) string {
	if strings.HasPrefix(fileID, "https://") {
		return fileID
	}
	return "https://docs.google.com/document/d/" + fileID
}

// FolderURL returns the browser URL for a Drive folder ID.
func FolderURL(folderID string) string {
	return "https://drive.google.com/drive/u/0/folders/" + folderID
}

// ExtractID pulls a Drive file ID out of a URL or raw ID string. Returns ""
// when the input contains nothing ID-shaped.
func ExtractID(s string) string {
	if m := reDriveURL.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	if reDriveID.MatchString(s) {
		return s
	}
	return ""
}
