package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/anyclick/anyclick/internal/debug"
)

// maxUploadBody caps direct file uploads.
const maxUploadBody = 16 << 20

var errInvalidDataURL = errors.New("invalid data url")

type uploadJSONRequest struct {
	URL     string `json:"url,omitempty"`
	DataURL string `json:"dataUrl,omitempty"`
	Name    string `json:"name,omitempty"`
}

// handleUpload proxies one asset to UploadThing. The source is exactly
// one of: a multipart `file` field, a JSON `url` to fetch, or a JSON
// `dataUrl` to decode.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	token := r.Header.Get("X-Uploadthing-Token")
	if token == "" {
		token = s.cfg.UploadToken
	}
	if token == "" {
		token = os.Getenv("UPLOADTHING_TOKEN")
	}
	if token == "" {
		writeError(w, http.StatusServiceUnavailable, "uploadthing token not configured")
		return
	}

	name, data, contentType, status, errMsg := s.uploadSource(r)
	if errMsg != "" {
		writeError(w, status, errMsg)
		return
	}

	res, err := s.uploadClient(token).Upload(r.Context(), name, data, contentType)
	if err != nil {
		debug.Error("server", "upload failed: %v", err)
		writeError(w, http.StatusInternalServerError, "upload failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// uploadSource extracts the asset bytes from the request, enforcing the
// exactly-one-source rule.
func (s *Server) uploadSource(r *http.Request) (name string, data []byte, contentType string, status int, errMsg string) {
	ct := r.Header.Get("Content-Type")

	if strings.HasPrefix(ct, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBody); err != nil {
			return "", nil, "", http.StatusBadRequest, "invalid multipart body"
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			return "", nil, "", http.StatusBadRequest, "file field is required"
		}
		defer f.Close()
		data, err := io.ReadAll(io.LimitReader(f, maxUploadBody))
		if err != nil {
			return "", nil, "", http.StatusBadRequest, "failed to read file"
		}
		return hdr.Filename, data, hdr.Header.Get("Content-Type"), 0, ""
	}

	var req uploadJSONRequest
	if err := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxUploadBody)).Decode(&req); err != nil {
		return "", nil, "", http.StatusBadRequest, "invalid request body"
	}

	switch {
	case req.URL != "" && req.DataURL != "":
		return "", nil, "", http.StatusBadRequest, "provide exactly one of url or dataUrl"
	case req.DataURL != "":
		data, contentType, err := decodeDataURL(req.DataURL)
		if err != nil {
			return "", nil, "", http.StatusBadRequest, "invalid dataUrl"
		}
		name := req.Name
		if name == "" {
			name = "capture.png"
		}
		return name, data, contentType, 0, ""
	case req.URL != "":
		data, contentType, err := s.fetchAsset(r, req.URL)
		if err != nil {
			debug.Warn("server", "asset fetch failed: %v", err)
			return "", nil, "", http.StatusBadRequest, "failed to fetch url"
		}
		name := req.Name
		if name == "" {
			name = "asset"
		}
		return name, data, contentType, 0, ""
	default:
		return "", nil, "", http.StatusBadRequest, "provide a file, url, or dataUrl"
	}
}

func (s *Server) fetchAsset(r *http.Request, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxUploadBody))
	if err != nil {
		return nil, "", err
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// decodeDataURL splits a data:<type>;base64,<body> URL.
func decodeDataURL(dataURL string) (data []byte, contentType string, err error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return nil, "", errInvalidDataURL
	}
	meta, body, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", errInvalidDataURL
	}
	contentType = strings.TrimSuffix(meta, ";base64")
	if strings.HasSuffix(meta, ";base64") {
		data, err = base64.StdEncoding.DecodeString(body)
		if err != nil {
			return nil, "", err
		}
		return data, contentType, nil
	}
	return []byte(body), contentType, nil
}
