package pdfcrowd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/corray333/backend-labs/coffeeshop/internal/dal/breaker"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/errs"
	"github.com/go-resty/resty/v2"
	"github.com/spf13/viper"
)

const (
	provider        = "pdfcrowd"
	defaultEndpoint = "https://api.pdfcrowd.com/convert/24.04/"
)

// Client converts HTML documents to PDF through the PDFCrowd API.
type Client struct {
	http     *resty.Client
	cb       *breaker.CircuitBreaker
	endpoint string
	username string
	apiKey   string
}

// NewClient creates a PDFCrowd client from viper settings and PDFCROWD_* env vars.
func NewClient() *Client {
	endpoint := viper.GetString("pdfcrowd.endpoint")
	if endpoint == "" {
		endpoint = defaultEndpoint
	}

	timeout := viper.GetDuration("pdfcrowd.timeout")
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		http: resty.New().
			SetTimeout(timeout).
			SetRetryCount(0),
		cb:       breaker.New(provider),
		endpoint: endpoint,
		username: os.Getenv("PDFCROWD_USERNAME"),
		apiKey:   os.Getenv("PDFCROWD_API_KEY"),
	}
}

// ConvertHTML renders html as a PDF document.
func (c *Client) ConvertHTML(ctx context.Context, html string) ([]byte, error) {
	result, err := c.cb.Execute(func() (any, error) {
		resp, httpErr := c.http.R().
			SetContext(ctx).
			SetBasicAuth(c.username, c.apiKey).
			SetFormData(map[string]string{
				"input_format":  "html",
				"output_format": "pdf",
				"text":          html,
			}).
			Post(c.endpoint)
		if httpErr != nil {
			return nil, fmt.Errorf("HTTP error: %w", httpErr)
		}

		if resp.StatusCode() != http.StatusOK {
			return nil, fmt.Errorf("conversion returned status %d: %s", resp.StatusCode(), resp.String())
		}

		return resp.Body(), nil
	})
	if err != nil {
		return nil, &errs.UpstreamError{Provider: provider, Message: err.Error()}
	}

	return result.([]byte), nil
}
