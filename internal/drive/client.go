package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const folderMimeType = "application/vnd.google-apps.folder"

// Folder is a remote storage folder reference
type Folder struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Storage defines the remote document storage operations the folder service consumes
type Storage interface {
	EnsureFolder(ctx context.Context, name, parentID string) (*Folder, error)
	CreateFolder(ctx context.Context, name, parentID string) (*Folder, error)
	FindFolder(ctx context.Context, name, parentID string) (*Folder, error)
	DeleteFile(ctx context.Context, id string) error
}

// Client talks to a Drive style files API
type Client struct {
	baseURL     string
	accessToken string
	client      *http.Client
}

// NewClient creates a new drive client
func NewClient(baseURL, accessToken string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:     baseURL,
		accessToken: accessToken,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type fileResource struct {
	ID       string   `json:"id,omitempty"`
	Name     string   `json:"name"`
	MimeType string   `json:"mimeType,omitempty"`
	Parents  []string `json:"parents,omitempty"`
}

type fileList struct {
	Files []fileResource `json:"files"`
}

// EnsureFolder returns the folder with the given name under parentID,
// creating it when it does not exist yet
func (c *Client) EnsureFolder(ctx context.Context, name, parentID string) (*Folder, error) {
	folder, err := c.FindFolder(ctx, name, parentID)
	if err != nil {
		return nil, err
	}
	if folder != nil {
		return folder, nil
	}
	return c.CreateFolder(ctx, name, parentID)
}

// CreateFolder creates a folder under parentID and returns its id/url pair
func (c *Client) CreateFolder(ctx context.Context, name, parentID string) (*Folder, error) {
	resource := fileResource{
		Name:     name,
		MimeType: folderMimeType,
	}
	if parentID != "" {
		resource.Parents = []string{parentID}
	}

	body, err := json.Marshal(resource)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal folder resource: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/files", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	c.prepare(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach drive api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, c.apiError("create folder", resp)
	}

	var created fileResource
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("failed to decode create response: %w", err)
	}
	if created.ID == "" {
		return nil, fmt.Errorf("drive api returned empty folder id")
	}

	return &Folder{
		ID:   created.ID,
		Name: name,
		URL:  folderURL(created.ID),
	}, nil
}

// FindFolder looks up a non-trashed folder by name under parentID.
// Returns (nil, nil) when no folder matches.
func (c *Client) FindFolder(ctx context.Context, name, parentID string) (*Folder, error) {
	query := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false", escapeQuery(name), folderMimeType)
	if parentID != "" {
		query += fmt.Sprintf(" and '%s' in parents", escapeQuery(parentID))
	}

	reqURL := c.baseURL + "/files?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	c.prepare(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach drive api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, c.apiError("list files", resp)
	}

	var list fileList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("failed to decode list response: %w", err)
	}
	if len(list.Files) == 0 {
		return nil, nil
	}

	return &Folder{
		ID:   list.Files[0].ID,
		Name: list.Files[0].Name,
		URL:  folderURL(list.Files[0].ID),
	}, nil
}

// DeleteFile removes a file or folder by id
func (c *Client) DeleteFile(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/files/"+id, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	c.prepare(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach drive api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
		return c.apiError("delete file", resp)
	}

	return nil
}

func (c *Client) prepare(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
}

func (c *Client) apiError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("drive api %s failed (http %d): %s", op, resp.StatusCode, string(body))
}

func folderURL(id string) string {
	return "https://drive.google.com/drive/folders/" + id
}

// escapeQuery escapes single quotes inside a drive query term
func escapeQuery(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' {
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
