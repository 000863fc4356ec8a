package services

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/amirphl/property-guru/utils"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker/v2"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// UploadResult identifies an uploaded asset
type UploadResult struct {
	URL      string
	PublicID string
}

// MediaUploader pushes a local file to media storage
type MediaUploader interface {
	Upload(ctx context.Context, localPath, folder, resourceType string) (*UploadResult, error)
}

var ErrUploadRejected = errors.New("media upload rejected")

var mediaBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "media_upload_breaker_state",
	Help: "Current state of the media upload circuit breaker (0=closed, 1=half-open, 2=open)",
}, []string{"name"})

func breakerStateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// BreakerSettings configures the circuit breaker around remote uploads
type BreakerSettings struct {
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	FailureRatio float64
	MinRequests  uint32
}

// CloudinaryUploader pushes files through the Cloudinary SDK behind a circuit breaker
type CloudinaryUploader struct {
	cld     *cloudinary.Cloudinary
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker[*UploadResult]
}

// NewCloudinaryUploader creates an uploader. baseURL overrides the SDK upload prefix when set.
func NewCloudinaryUploader(baseURL, cloudName, apiKey, apiSecret string, timeout time.Duration, bs BreakerSettings) (MediaUploader, error) {
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("cloud name, api key and api secret are required")
	}

	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to configure cloudinary: %w", err)
	}
	if baseURL != "" {
		cld.Config.API.UploadPrefix = strings.TrimRight(baseURL, "/")
	}

	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if bs.FailureRatio <= 0 {
		bs.FailureRatio = 0.5
	}
	if bs.Timeout <= 0 {
		bs.Timeout = 30 * time.Second
	}

	name := "cloudinary-upload"
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: bs.MaxRequests,
		Interval:    bs.Interval,
		Timeout:     bs.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < bs.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= bs.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			// rejected files are the caller's fault, not an outage
			return err == nil || errors.Is(err, ErrUploadRejected)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("circuit breaker %s: %s -> %s", name, from, to)
			mediaBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
		},
	}
	mediaBreakerState.WithLabelValues(name).Set(0)

	return &CloudinaryUploader{
		cld:     cld,
		timeout: timeout,
		breaker: gobreaker.NewCircuitBreaker[*UploadResult](settings),
	}, nil
}

func (u *CloudinaryUploader) Upload(ctx context.Context, localPath, folder, resourceType string) (*UploadResult, error) {
	if folder == "" {
		folder = utils.DefaultMediaFolder
	}
	if resourceType == "" {
		resourceType = utils.ResourceTypeAuto
	}
	if _, err := os.Stat(localPath); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadRejected, err)
	}
	return u.breaker.Execute(func() (*UploadResult, error) {
		return u.upload(ctx, localPath, folder, resourceType)
	})
}

func (u *CloudinaryUploader) upload(ctx context.Context, localPath, folder, resourceType string) (*UploadResult, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	resp, err := u.cld.Upload.Upload(ctx, localPath, uploader.UploadParams{
		Folder:       folder,
		ResourceType: resourceType,
	})
	if err != nil {
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	if resp.Error.Message != "" {
		return nil, fmt.Errorf("%w: %s", ErrUploadRejected, resp.Error.Message)
	}

	link := resp.SecureURL
	if link == "" {
		link = resp.URL
	}
	if link == "" {
		return nil, fmt.Errorf("upload response carried no url")
	}
	return &UploadResult{URL: link, PublicID: resp.PublicID}, nil
}

// LocalMediaStore copies uploads below a directory served under /uploads
type LocalMediaStore struct {
	root       string
	publicBase string
}

func NewLocalMediaStore(root, publicBase string) (MediaUploader, error) {
	if root == "" {
		return nil, fmt.Errorf("uploads directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads directory: %w", err)
	}
	return &LocalMediaStore{root: root, publicBase: strings.TrimRight(publicBase, "/")}, nil
}

func (s *LocalMediaStore) Upload(ctx context.Context, localPath, folder, resourceType string) (*UploadResult, error) {
	if folder == "" {
		folder = utils.DefaultMediaFolder
	}
	folder = filepath.Clean("/" + folder)[1:]

	src, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadRejected, err)
	}
	defer src.Close()

	dir := filepath.Join(s.root, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	name := uuid.NewString() + strings.ToLower(filepath.Ext(localPath))
	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(dst.Name())
		return nil, err
	}
	if err := dst.Close(); err != nil {
		return nil, err
	}

	publicID := filepath.ToSlash(filepath.Join(folder, name))
	return &UploadResult{URL: s.publicBase + "/uploads/" + publicID, PublicID: publicID}, nil
}

// optimizingUploader downscales large images before handing them to the next uploader
type optimizingUploader struct {
	next   MediaUploader
	maxDim int
}

// NewOptimizingUploader wraps next. maxDim <= 0 disables resizing.
func NewOptimizingUploader(next MediaUploader, maxDim int) MediaUploader {
	if maxDim <= 0 {
		return next
	}
	return &optimizingUploader{next: next, maxDim: maxDim}
}

func (u *optimizingUploader) Upload(ctx context.Context, localPath, folder, resourceType string) (*UploadResult, error) {
	path := localPath
	if resourceType != utils.ResourceTypeVideo {
		prepared, err := DownscaleImage(localPath, u.maxDim)
		if err != nil {
			log.Printf("image downscale skipped for %s: %v", filepath.Base(localPath), err)
		} else if prepared != localPath {
			defer os.Remove(prepared)
			path = prepared
		}
	}
	return u.next.Upload(ctx, path, folder, resourceType)
}

var resizableExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}

// DownscaleImage writes a resized copy of an image larger than maxDim and returns its path.
// Files that need no change are returned unchanged. WebP input is re-encoded as JPEG.
func DownscaleImage(localPath string, maxDim int) (string, error) {
	ext := strings.ToLower(filepath.Ext(localPath))
	if !resizableExts[ext] {
		return localPath, nil
	}

	f, err := os.Open(localPath)
	if err != nil {
		return "", err
	}
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		f.Close()
		return "", err
	}
	if cfg.Width <= maxDim && cfg.Height <= maxDim {
		f.Close()
		return localPath, nil
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return "", err
	}
	img, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		return "", err
	}

	resized := resizeImage(img, maxDim)
	outExt := ".jpg"
	if ext == ".png" {
		outExt = ".png"
	}
	out, err := os.CreateTemp(filepath.Dir(localPath), "resized-*"+outExt)
	if err != nil {
		return "", err
	}
	if outExt == ".png" {
		err = png.Encode(out, resized)
	} else {
		err = jpeg.Encode(out, resized, &jpeg.Options{Quality: 85})
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(out.Name())
		return "", err
	}
	return out.Name(), nil
}

func resizeImage(src image.Image, maxDim int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxDim && h <= maxDim {
		return src
	}

	var nw, nh int
	if w >= h {
		nw = maxDim
		nh = int(float64(h) * float64(maxDim) / float64(w))
	} else {
		nh = maxDim
		nw = int(float64(w) * float64(maxDim) / float64(h))
	}
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	imagedraw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, imagedraw.Src)
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)
	return dst
}
