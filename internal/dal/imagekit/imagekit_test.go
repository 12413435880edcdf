package imagekit

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
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

	viper.Set("imagekit.upload_endpoint", srv.URL)
	t.Cleanup(func() { viper.Set("imagekit.upload_endpoint", "") })
	t.Setenv("IMAGEKIT_PRIVATE_KEY", "private_test")

	return NewClient()
}

func tempUploads(t *testing.T) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(os.TempDir(), "coffeeshop-upload-*"))
	require.NoError(t, err)

	return matches
}

func TestUploadReturnsURL(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		user, _, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "private_test", user)

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Iced_Latte.png", r.FormValue("fileName"))

		file, _, err := r.FormFile("file")
		require.NoError(t, err)
		body, _ := io.ReadAll(file)
		assert.Equal(t, "png-bytes", string(body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"url":"https://ik.imagekit.io/shop/Iced_Latte.png"}`))
	})

	before := tempUploads(t)
	url, err := client.Upload(context.Background(), strings.NewReader("png-bytes"), "Iced_Latte.png")
	require.NoError(t, err)
	assert.Equal(t, "https://ik.imagekit.io/shop/Iced_Latte.png", url)
	assert.ElementsMatch(t, before, tempUploads(t))
}

func TestUploadFailureIsUpstreamAndCleansUp(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"Your account cannot be authenticated."}`))
	})

	before := tempUploads(t)
	_, err := client.Upload(context.Background(), strings.NewReader("x"), "a.png")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrUpstream)
	assert.Contains(t, errs.Message(err, ""), "Your account cannot be authenticated.")
	assert.ElementsMatch(t, before, tempUploads(t))
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "Iced_Latte.PNG", FileName("Iced Latte", "IMG 01.PNG"))
	assert.Equal(t, "Kopi_Susu.jpg", FileName("  Kopi/Susu ", "../../etc.jpg"))
	assert.Equal(t, "image.webp", FileName("", "x.webp"))
	assert.Equal(t, "Mocha", FileName("Mocha", "noext"))
}
