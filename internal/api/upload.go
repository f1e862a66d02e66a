package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
)

const uploadPath = "/upload/image"

// maxUploadBytes caps the size of a single image read into memory.
const maxUploadBytes = 20 << 20

// ImageContentType maps a file name to the image MIME type the backend
// accepts, defaulting to JPEG.
func ImageContentType(name string) string {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(name), ".")) {
	case "png":
		return "image/png"
	case "webp":
		return "image/webp"
	case "gif":
		return "image/gif"
	default:
		return "image/jpeg"
	}
}

// LocalPath strips a file:// scheme from a local resource reference.
func LocalPath(ref string) string {
	return strings.TrimPrefix(strings.TrimSpace(ref), "file://")
}

// ReadImage loads a local image reference, enforcing the upload size cap.
func ReadImage(ref string) ([]byte, string, error) {
	path := LocalPath(ref)
	if path == "" {
		return nil, "", fmt.Errorf("invalid image reference %q", ref)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open image: %w", err)
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read image: %w", err)
	}
	if len(data) > maxUploadBytes {
		return nil, "", fmt.Errorf("image %s exceeds %d MiB", filepath.Base(path), maxUploadBytes>>20)
	}
	return data, filepath.Base(path), nil
}

// UploadImage sends a local image to the backend and returns its absolute URL.
func (c *Client) UploadImage(ctx context.Context, ref string) (string, error) {
	if c == nil {
		return "", fmt.Errorf("client is nil")
	}
	op := http.MethodPost + " " + uploadPath
	data, name, err := ReadImage(ref)
	if err != nil {
		return "", &Error{Kind: KindOther, Op: op, Err: err}
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
	header.Set("Content-Type", ImageContentType(name))
	part, err := writer.CreatePart(header)
	if err != nil {
		return "", &Error{Kind: KindOther, Op: op, Err: fmt.Errorf("build form: %w", err)}
	}
	if _, err := part.Write(data); err != nil {
		return "", &Error{Kind: KindOther, Op: op, Err: fmt.Errorf("build form: %w", err)}
	}
	if err := writer.Close(); err != nil {
		return "", &Error{Kind: KindOther, Op: op, Err: fmt.Errorf("build form: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(relPath(uploadPath)), &body)
	if err != nil {
		return "", &Error{Kind: KindOther, Op: op, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.decorate(req)

	resp, err := c.uploadHTTP.Do(req)
	if err != nil {
		return "", &Error{Kind: KindNetwork, Op: op, Err: fmt.Errorf("could not reach the server: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return "", statusError(op, resp)
	}

	var reply struct {
		URL      string `json:"url"`
		Path     string `json:"path"`
		Location string `json:"location"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return "", &Error{Kind: KindDecode, Op: op, Status: resp.StatusCode, Err: err}
	}
	raw := firstNonEmpty(reply.URL, reply.Path, reply.Location)
	if raw == "" {
		return "", &Error{Kind: KindDecode, Op: op, Status: resp.StatusCode, Err: errors.New("server returned no image URL")}
	}
	return c.ResolveURL(raw), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
