package services

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestPNG(t *testing.T, dir string, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{R: 200, A: 255})
	}
	path := filepath.Join(dir, "photo.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func TestCloudinaryUploader(t *testing.T) {
	var gotPath, gotFolder, gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotFolder = r.FormValue("folder")
		gotKey = r.FormValue("api_key")
		_, _, err := r.FormFile("file")
		require.NoError(t, err)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"secure_url": "https://res.example.com/demo/property_site/abc.png",
			"public_id":  "property_site/abc",
		})
	}))
	defer server.Close()

	uploader, err := NewCloudinaryUploader(server.URL, "demo", "key", "secret", time.Second, BreakerSettings{})
	require.NoError(t, err)

	path := writeTestPNG(t, t.TempDir(), 10, 10)
	res, err := uploader.Upload(context.Background(), path, "", "")
	require.NoError(t, err)
	assert.Equal(t, "/v1_1/demo/auto/upload", gotPath)
	assert.Equal(t, "property_site", gotFolder)
	assert.Equal(t, "key", gotKey)
	assert.Equal(t, "https://res.example.com/demo/property_site/abc.png", res.URL)
	assert.Equal(t, "property_site/abc", res.PublicID)
}

func TestCloudinaryUploaderBreakerOpens(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	uploader, err := NewCloudinaryUploader(server.URL, "demo", "key", "secret", time.Second, BreakerSettings{
		MinRequests:  2,
		FailureRatio: 0.5,
		Timeout:      time.Minute,
	})
	require.NoError(t, err)

	path := writeTestPNG(t, t.TempDir(), 4, 4)
	for i := 0; i < 2; i++ {
		_, err := uploader.Upload(context.Background(), path, "", "")
		assert.Error(t, err)
	}

	_, err = uploader.Upload(context.Background(), path, "", "")
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
	assert.Equal(t, 2, calls)
}

func TestCloudinaryUploaderRejectedFileDoesNotTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid image file"}}`))
	}))
	defer server.Close()

	uploader, err := NewCloudinaryUploader(server.URL, "demo", "key", "secret", time.Second, BreakerSettings{MinRequests: 1})
	require.NoError(t, err)

	path := writeTestPNG(t, t.TempDir(), 4, 4)
	for i := 0; i < 3; i++ {
		_, err := uploader.Upload(context.Background(), path, "", "")
		assert.ErrorIs(t, err, ErrUploadRejected)
	}
}

func TestCloudinaryUploaderMissingFileIsRejected(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	uploader, err := NewCloudinaryUploader(server.URL, "demo", "key", "secret", time.Second, BreakerSettings{})
	require.NoError(t, err)

	_, err = uploader.Upload(context.Background(), filepath.Join(t.TempDir(), "gone.png"), "", "")
	assert.ErrorIs(t, err, ErrUploadRejected)
	assert.Zero(t, calls)
}

func TestNewCloudinaryUploaderRequiresCredentials(t *testing.T) {
	_, err := NewCloudinaryUploader("", "", "key", "secret", 0, BreakerSettings{})
	assert.Error(t, err)
}

func TestLocalMediaStore(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalMediaStore(root, "http://localhost:8080/")
	require.NoError(t, err)

	src := writeTestPNG(t, t.TempDir(), 4, 4)
	res, err := store.Upload(context.Background(), src, "../escape/property_site", "image")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(res.URL, "http://localhost:8080/uploads/escape/property_site/"))
	assert.True(t, strings.HasSuffix(res.PublicID, ".png"))
	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(res.PublicID)))
	assert.NoError(t, err)
}

func TestDownscaleImage(t *testing.T) {
	dir := t.TempDir()

	small := writeTestPNG(t, dir, 20, 10)
	out, err := DownscaleImage(small, 40)
	require.NoError(t, err)
	assert.Equal(t, small, out)

	large := writeTestPNG(t, t.TempDir(), 100, 50)
	out, err = DownscaleImage(large, 40)
	require.NoError(t, err)
	assert.NotEqual(t, large, out)
	defer os.Remove(out)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.Width)
	assert.Equal(t, 20, cfg.Height)

	video := filepath.Join(dir, "clip.mp4")
	require.NoError(t, os.WriteFile(video, []byte("not really a video"), 0o600))
	out, err = DownscaleImage(video, 40)
	require.NoError(t, err)
	assert.Equal(t, video, out)
}

type recordingUploader struct {
	paths []string
}

func (r *recordingUploader) Upload(ctx context.Context, localPath, folder, resourceType string) (*UploadResult, error) {
	r.paths = append(r.paths, localPath)
	return &UploadResult{URL: "u", PublicID: "p"}, nil
}

func TestOptimizingUploaderCleansResizedCopy(t *testing.T) {
	next := &recordingUploader{}
	uploader := NewOptimizingUploader(next, 40)

	large := writeTestPNG(t, t.TempDir(), 100, 50)
	_, err := uploader.Upload(context.Background(), large, "", "image")
	require.NoError(t, err)

	require.Len(t, next.paths, 1)
	assert.NotEqual(t, large, next.paths[0])
	_, err = os.Stat(next.paths[0])
	assert.True(t, os.IsNotExist(err), "resized copy must be removed after upload")
	_, err = os.Stat(large)
	assert.NoError(t, err, "the caller owns the original file")
}
