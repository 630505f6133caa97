// Package uploader is a thin client for the UploadThing REST API, used
// to host screenshot assets referenced from issue trackers.
package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/anyclick/anyclick/internal/debug"
)

// DefaultBaseURL is the UploadThing API endpoint.
const DefaultBaseURL = "https://api.uploadthing.com"

// ErrMissingToken is returned when no API token is configured.
var ErrMissingToken = errors.New("uploadthing token is required")

// Client talks to the UploadThing API.
type Client struct {
	// Token is the UploadThing secret token.
	Token string

	// BaseURL overrides the API endpoint, mainly for tests.
	BaseURL string

	// HTTPClient overrides the default client.
	HTTPClient *http.Client
}

// UploadResult describes one hosted file.
type UploadResult struct {
	URL  string `json:"url"`
	Key  string `json:"key"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

type prepareRequest struct {
	Files              []prepareFile `json:"files"`
	ACL                string        `json:"acl"`
	ContentDisposition string        `json:"contentDisposition"`
}

type prepareFile struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Type string `json:"type,omitempty"`
}

type prepareResponse struct {
	Data []struct {
		URL     string            `json:"url"`
		Fields  map[string]string `json:"fields"`
		Key     string            `json:"key"`
		FileURL string            `json:"fileUrl"`
	} `json:"data"`
}

func (c *Client) httpc() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 30 * time.Second}
}

func (c *Client) baseURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return DefaultBaseURL
}

// Upload hosts one file and returns its public URL. The flow is the
// documented two-step: prepare (returns a presigned destination) then a
// multipart POST of the bytes.
func (c *Client) Upload(ctx context.Context, name string, data []byte, contentType string) (*UploadResult, error) {
	if c.Token == "" {
		return nil, ErrMissingToken
	}

	prep, err := c.prepare(ctx, name, int64(len(data)), contentType)
	if err != nil {
		return nil, err
	}

	if err := c.put(ctx, prep.URL, prep.Fields, name, data, contentType); err != nil {
		return nil, err
	}

	debug.Log("uploader", "uploaded %s (%d bytes) -> %s", name, len(data), prep.FileURL)
	return &UploadResult{
		URL:  prep.FileURL,
		Key:  prep.Key,
		Name: name,
		Size: int64(len(data)),
	}, nil
}

type prepared struct {
	URL     string
	Fields  map[string]string
	Key     string
	FileURL string
}

func (c *Client) prepare(ctx context.Context, name string, size int64, contentType string) (*prepared, error) {
	body, err := json.Marshal(prepareRequest{
		Files:              []prepareFile{{Name: name, Size: size, Type: contentType}},
		ACL:                "public-read",
		ContentDisposition: "inline",
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL()+"/v6/uploadFiles", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Uploadthing-Api-Key", c.Token)

	resp, err := c.httpc().Do(req)
	if err != nil {
		return nil, fmt.Errorf("uploadthing prepare failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("uploadthing prepare returned %d: %s", resp.StatusCode, msg)
	}

	var pr prepareResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("uploadthing prepare response malformed: %w", err)
	}
	if len(pr.Data) == 0 {
		return nil, errors.New("uploadthing prepare returned no destinations")
	}

	d := pr.Data[0]
	return &prepared{URL: d.URL, Fields: d.Fields, Key: d.Key, FileURL: d.FileURL}, nil
}

// put posts the file bytes to the presigned destination.
func (c *Client) put(ctx context.Context, dest string, fields map[string]string, name string, data []byte, contentType string) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return err
		}
	}

	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		return err
	}
	if _, err := fw.Write(data); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, dest, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpc().Do(req)
	if err != nil {
		return fmt.Errorf("uploadthing upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("uploadthing upload returned %d: %s", resp.StatusCode, msg)
	}
	return nil
}
