package pdfcrowd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/corray333/backend-labs/coffeeshop/internal/service/errs"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	viper.Set("pdfcrowd.endpoint", srv.URL)
	t.Cleanup(func() { viper.Set("pdfcrowd.endpoint", "") })
	t.Setenv("PDFCROWD_USERNAME", "demo")
	t.Setenv("PDFCROWD_API_KEY", "secret")

	return NewClient()
}

func TestConvertHTML(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "demo", user)
		assert.Equal(t, "secret", pass)

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "<p>receipt</p>", r.FormValue("text"))
		assert.Equal(t, "pdf", r.FormValue("output_format"))

		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.7"))
	})

	pdf, err := client.ConvertHTML(context.Background(), "<p>receipt</p>")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", string(pdf))
}

func TestConvertHTMLProviderError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte("No credits left"))
	})

	_, err := client.ConvertHTML(context.Background(), "<p></p>")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrUpstream)
	assert.Contains(t, errs.Message(err, ""), "No credits left")
}
