package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	"golang.org/x/oauth2/google"
)

const (
	driveEndpoint  = "https://www.googleapis.com/drive/v3"
	sheetsEndpoint = "https://sheets.googleapis.com/v4"

	driveScope = "https://www.googleapis.com/auth/drive"

	folderMIME      = "application/vnd.google-apps.folder"
	spreadsheetMIME = "application/vnd.google-apps.spreadsheet"
)

// Client implements DocumentStore against the Google Drive v3 and Sheets v4
// REST APIs using a service account.
type Client struct {
	httpc      *http.Client
	driveBase  string
	sheetsBase string
}

// NewClient reads a service account JSON key file and returns an
// authenticated client. The context bounds token fetches for the lifetime of
// the client.
func NewClient(ctx context.Context, credentialsFile string) (*Client, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("drive: read credentials: %w", err)
	}
	return NewClientFromJSON(ctx, data)
}

// NewClientFromJSON builds a client from raw service account key JSON.
func NewClientFromJSON(ctx context.Context, credentials []byte) (*Client, error) {
	conf, err := google.JWTConfigFromJSON(credentials, driveScope)
	if err != nil {
		return nil, fmt.Errorf("drive: parse credentials: %w", err)
	}
	return &Client{
		httpc:      conf.Client(ctx),
		driveBase:  driveEndpoint,
		sheetsBase: sheetsEndpoint,
	}, nil
}

func (c *Client) GetOrCreateFolder(ctx context.Context, name, parentID string) (string, bool, error) {
	id, err := c.findFolder(ctx, name, parentID)
	if err != nil {
		return "", false, err
	}
	if id != "" {
		return id, false, nil
	}

	body := map[string]any{"name": name, "mimeType": folderMIME}
	if parentID != "" {
		body["parents"] = []string{parentID}
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := c.call(ctx, http.MethodPost, c.driveBase+"/files?fields=id", body, &created); err != nil {
		return "", false, fmt.Errorf("drive: create folder %q: %w", name, err)
	}
	return created.ID, true, nil
}

func (c *Client) findFolder(ctx context.Context, name, parentID string) (string, error) {
	q := url.Values{}
	q.Set("q", fmt.Sprintf("mimeType='%s' and name = '%s' and '%s' in parents and trashed = false",
		folderMIME, name, parentID))
	q.Set("spaces", "drive")
	q.Set("fields", "files(id, name)")

	var result struct {
		Files []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"files"`
	}
	if err := c.call(ctx, http.MethodGet, c.driveBase+"/files?"+q.Encode(), nil, &result); err != nil {
		return "", fmt.Errorf("drive: find folder %q: %w", name, err)
	}
	if len(result.Files) == 0 {
		return "", nil
	}
	return result.Files[0].ID, nil
}

func (c *Client) CreateSpreadsheet(ctx context.Context, title, folderID string) (string, error) {
	body := map[string]any{"name": title, "mimeType": spreadsheetMIME}
	if folderID != "" {
		body["parents"] = []string{folderID}
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := c.call(ctx, http.MethodPost, c.driveBase+"/files?fields=id", body, &created); err != nil {
		return "", fmt.Errorf("drive: create spreadsheet %q: %w", title, err)
	}
	if err := c.shareAnyone(ctx, created.ID); err != nil {
		return "", err
	}
	return created.ID, nil
}

func (c *Client) CopySpreadsheet(ctx context.Context, templateID, title, folderID string) (string, error) {
	body := map[string]any{"name": title}
	if folderID != "" {
		body["parents"] = []string{folderID}
	}
	var created struct {
		ID string `json:"id"`
	}
	u := fmt.Sprintf("%s/files/%s/copy?fields=id", c.driveBase, templateID)
	if err := c.call(ctx, http.MethodPost, u, body, &created); err != nil {
		return "", fmt.Errorf("drive: copy spreadsheet %s: %w", templateID, err)
	}
	if err := c.shareAnyone(ctx, created.ID); err != nil {
		return "", err
	}
	return created.ID, nil
}

// shareAnyone lets anyone with the link edit. Puzzle sheets are shared with
// the whole team, most of whom are not in the service account's domain.
func (c *Client) shareAnyone(ctx context.Context, fileID string) error {
	body := map[string]any{"type": "anyone", "role": "writer"}
	u := fmt.Sprintf("%s/files/%s/permissions?fields=id", c.driveBase, fileID)
	if err := c.call(ctx, http.MethodPost, u, body, nil); err != nil {
		return fmt.Errorf("drive: share file %s: %w", fileID, err)
	}
	return nil
}

func (c *Client) RenameFile(ctx context.Context, fileID string, rename func(current string) string) (string, error) {
	var file struct {
		Name string `json:"name"`
	}
	u := fmt.Sprintf("%s/files/%s?fields=name", c.driveBase, fileID)
	if err := c.call(ctx, http.MethodGet, u, nil, &file); err != nil {
		return "", fmt.Errorf("drive: get file %s: %w", fileID, err)
	}

	next := rename(file.Name)
	if next == file.Name {
		return next, nil
	}
	u = fmt.Sprintf("%s/files/%s?fields=name", c.driveBase, fileID)
	if err := c.call(ctx, http.MethodPatch, u, map[string]any{"name": next}, nil); err != nil {
		return "", fmt.Errorf("drive: rename file %s: %w", fileID, err)
	}
	return next, nil
}

func (c *Client) WriteCells(ctx context.Context, sheetID, rangeA1 string, values [][]string) error {
	rows := make([][]any, len(values))
	for i, row := range values {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = v
		}
		rows[i] = cells
	}
	body := map[string]any{
		"range":          rangeA1,
		"majorDimension": "ROWS",
		"values":         rows,
	}
	u := fmt.Sprintf("%s/spreadsheets/%s/values/%s?valueInputOption=USER_ENTERED",
		c.sheetsBase, sheetID, url.PathEscape(rangeA1))
	if err := c.call(ctx, http.MethodPut, u, body, nil); err != nil {
		return fmt.Errorf("drive: write cells %s!%s: %w", sheetID, rangeA1, err)
	}
	return nil
}

// call issues one JSON request and decodes the response into out (if non-nil).
func (c *Client) call(ctx context.Context, method, u string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, u, resp.StatusCode, snippet)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
