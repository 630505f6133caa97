package adapter

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/anyclick/anyclick/internal/capture"
	"github.com/anyclick/anyclick/internal/payload"
	"github.com/anyclick/anyclick/internal/uploader"
)

// UploadThing hosts the payload's screenshots and reports the first
// hosted URL. Payloads without screenshots are rejected, not silently
// accepted.
type UploadThing struct {
	Client *uploader.Client
}

func (u *UploadThing) Name() string { return "uploadthing" }

// Submit uploads every available screenshot, element shot first.
func (u *UploadThing) Submit(ctx context.Context, fb *payload.Feedback) Result {
	if u.Client == nil {
		return failf("uploadthing adapter is not configured")
	}
	if fb.Screenshots == nil || len(fb.Screenshots.Shots) == 0 {
		return failf("payload has no screenshots to upload")
	}

	var first *uploader.UploadResult
	for _, target := range capture.Targets {
		shot, ok := fb.Screenshots.Shots[target]
		if !ok {
			continue
		}

		data, contentType, err := decodeDataURL(shot.DataURL)
		if err != nil {
			return failf("%s screenshot is not a valid data URL: %v", target, err)
		}

		name := fmt.Sprintf("anyclick-%s-%s.png", fb.ID, target)
		res, err := u.Client.Upload(ctx, name, data, contentType)
		if err != nil {
			return fail(err)
		}
		if first == nil {
			first = res
		}
	}

	// The shots map is externally supplied; keys outside the canonical
	// target set upload nothing.
	if first == nil {
		return failf("payload screenshots carry no recognized capture target")
	}
	return ok(first.Key, first.URL)
}

// decodeDataURL splits "data:image/png;base64,..." into bytes and type.
func decodeDataURL(dataURL string) ([]byte, string, error) {
	meta, body, found := strings.Cut(dataURL, ",")
	if !found || !strings.HasPrefix(meta, "data:") {
		return nil, "", fmt.Errorf("missing data: prefix")
	}

	contentType := strings.TrimPrefix(meta, "data:")
	contentType = strings.TrimSuffix(contentType, ";base64")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	data, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return nil, "", err
	}
	return data, contentType, nil
}
