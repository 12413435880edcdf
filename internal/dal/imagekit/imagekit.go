package imagekit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/corray333/backend-labs/coffeeshop/internal/dal/breaker"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/errs"
	"github.com/go-resty/resty/v2"
	"github.com/spf13/viper"
)

const (
	provider        = "imagekit"
	defaultEndpoint = "https://upload.imagekit.io/api/v1/files/upload"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// Client uploads product images to ImageKit.
type Client struct {
	http       *resty.Client
	cb         *breaker.CircuitBreaker
	endpoint   string
	privateKey string
	folder     string
}

type uploadResponse struct {
	URL     string `json:"url"`
	Message string `json:"message"`
}

// NewClient creates an ImageKit client from viper settings and IMAGEKIT_PRIVATE_KEY.
func NewClient() *Client {
	endpoint := viper.GetString("imagekit.upload_endpoint")
	if endpoint == "" {
		endpoint = defaultEndpoint
	}

	timeout := viper.GetDuration("imagekit.timeout")
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		http: resty.New().
			SetTimeout(timeout).
			SetRetryCount(0),
		cb:         breaker.New(provider),
		endpoint:   endpoint,
		privateKey: os.Getenv("IMAGEKIT_PRIVATE_KEY"),
		folder:     viper.GetString("imagekit.folder"),
	}
}

// FileName builds the stored name from the product name and the uploaded
// file's extension: ("Iced Latte", "IMG 01.PNG") -> "Iced_Latte.PNG".
func FileName(productName, uploadedName string) string {
	base := strings.Trim(unsafeChars.ReplaceAllString(strings.TrimSpace(productName), "_"), "_.")
	if base == "" {
		base = "image"
	}

	ext := filepath.Ext(uploadedName)
	if ext == "" {
		return base
	}

	return base + "." + strings.Trim(unsafeChars.ReplaceAllString(ext[1:], ""), ".")
}

// Upload stores file under name and returns its public URL. The file is
// spooled to a temporary local copy that is always removed.
func (c *Client) Upload(ctx context.Context, file io.Reader, name string) (string, error) {
	tmp, err := os.CreateTemp("", "coffeeshop-upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := io.Copy(tmp, file); err != nil {
		return "", fmt.Errorf("failed to spool upload: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to rewind upload: %w", err)
	}

	result, err := c.cb.Execute(func() (any, error) {
		form := map[string]string{
			"fileName":          name,
			"useUniqueFileName": "false",
		}
		if c.folder != "" {
			form["folder"] = c.folder
		}

		resp, httpErr := c.http.R().
			SetContext(ctx).
			SetBasicAuth(c.privateKey, "").
			SetFileReader("file", name, tmp).
			SetFormData(form).
			Post(c.endpoint)
		if httpErr != nil {
			return nil, fmt.Errorf("HTTP error: %w", httpErr)
		}

		var body uploadResponse
		_ = json.Unmarshal(resp.Body(), &body)

		if resp.StatusCode() != http.StatusOK {
			message := body.Message
			if message == "" {
				message = resp.String()
			}
			return nil, fmt.Errorf("upload returned status %d: %s", resp.StatusCode(), message)
		}
		if body.URL == "" {
			return nil, fmt.Errorf("upload response has no url")
		}

		return body.URL, nil
	})
	if err != nil {
		return "", &errs.UpstreamError{Provider: provider, Message: err.Error()}
	}

	return result.(string), nil
}
