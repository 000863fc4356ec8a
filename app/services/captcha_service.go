package services

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/wenlng/go-captcha/v2/rotate"
)

// CaptchaService generates and verifies rotate captchas for public forms
//
// Generate returns a challenge id and two base64 images (master and thumb). The
// thumb is shown turned by the stored target angle; the client submits the
// corrective rotation it applied, so a correct answer satisfies
// target+submitted = 360 within the padding. A challenge is consumed by the
// first verification attempt, successful or not.
type CaptchaService interface {
	GenerateRotate(ctx context.Context) (*RotateChallenge, error)
	VerifyRotate(ctx context.Context, challengeID string, userAngle float64) bool
}

type RotateChallenge struct {
	ID                string
	MasterImageBase64 string
	ThumbImageBase64  string
}

// ChallengeStore keeps target angles until they are consumed or expire
type ChallengeStore interface {
	Put(ctx context.Context, id string, angle int, ttl time.Duration) error
	// Take returns the stored angle and removes it
	Take(ctx context.Context, id string) (int, bool, error)
}

type captchaServiceImpl struct {
	rotator   rotate.Captcha
	store     ChallengeStore
	ttl       time.Duration
	padding   int // tolerance for angle validation
	imgSizePx int // square size for rotate captcha images
}

// NewCaptchaServiceRotate constructs a CaptchaService using rotate mode.
// A nil store falls back to an in-memory store.
func NewCaptchaServiceRotate(store ChallengeStore, ttl time.Duration, padding int, imgSizePx int) (CaptchaService, error) {
	if imgSizePx <= 0 {
		imgSizePx = 220
	}
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	if store == nil {
		store = NewMemoryChallengeStore()
	}

	builder := rotate.NewBuilder(
		rotate.WithImageSquareSize(imgSizePx),
	)
	builder.SetResources(
		rotate.WithImages(generateRotateBackgrounds(3, imgSizePx)),
	)

	return &captchaServiceImpl{
		rotator:   builder.Make(),
		store:     store,
		ttl:       ttl,
		padding:   padding,
		imgSizePx: imgSizePx,
	}, nil
}

func (s *captchaServiceImpl) GenerateRotate(ctx context.Context) (*RotateChallenge, error) {
	captData, err := s.rotator.Generate()
	if err != nil {
		return nil, err
	}

	block := captData.GetData()
	if block == nil {
		return nil, fmt.Errorf("captcha generator returned no data")
	}

	masterB64, err := captData.GetMasterImage().ToBase64()
	if err != nil {
		return nil, err
	}
	thumbB64, err := captData.GetThumbImage().ToBase64()
	if err != nil {
		return nil, err
	}

	challengeID := uuid.New().String()
	if err := s.store.Put(ctx, challengeID, block.Angle, s.ttl); err != nil {
		return nil, fmt.Errorf("failed to store captcha challenge: %w", err)
	}

	return &RotateChallenge{
		ID:                challengeID,
		MasterImageBase64: masterB64,
		ThumbImageBase64:  thumbB64,
	}, nil
}

func (s *captchaServiceImpl) VerifyRotate(ctx context.Context, challengeID string, userAngle float64) bool {
	if challengeID == "" {
		return false
	}
	target, ok, err := s.store.Take(ctx, challengeID)
	if err != nil || !ok {
		return false
	}

	return rotate.Validate(int(math.Round(userAngle)), target, s.padding)
}

// --- In-memory store with TTL ---

type storeEntry struct {
	targetAngle int
	expiresAt   time.Time
}

type memoryStore struct {
	mu sync.Mutex
	m  map[string]storeEntry
}

// NewMemoryChallengeStore returns a process local challenge store
func NewMemoryChallengeStore() ChallengeStore {
	return &memoryStore{m: make(map[string]storeEntry)}
}

func (s *memoryStore) Put(ctx context.Context, id string, angle int, ttl time.Duration) error {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range s.m {
		if now.After(v.expiresAt) {
			delete(s.m, k)
		}
	}
	s.m[id] = storeEntry{targetAngle: angle, expiresAt: now.Add(ttl)}
	return nil
}

func (s *memoryStore) Take(ctx context.Context, id string) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.m[id]
	if !ok {
		return 0, false, nil
	}
	delete(s.m, id)
	if time.Now().After(e.expiresAt) {
		return 0, false, nil
	}
	return e.targetAngle, true, nil
}

// --- Redis store ---

type redisChallengeStore struct {
	client *redis.Client
	prefix string
}

// NewRedisChallengeStore keeps challenges in Redis so any instance can verify them
func NewRedisChallengeStore(client *redis.Client, prefix string) ChallengeStore {
	return &redisChallengeStore{client: client, prefix: prefix}
}

func (s *redisChallengeStore) key(id string) string {
	return s.prefix + "captcha:" + id
}

func (s *redisChallengeStore) Put(ctx context.Context, id string, angle int, ttl time.Duration) error {
	return s.client.Set(ctx, s.key(id), angle, ttl).Err()
}

func (s *redisChallengeStore) Take(ctx context.Context, id string) (int, bool, error) {
	val, err := s.client.GetDel(ctx, s.key(id)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	angle, err := strconv.Atoi(val)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt captcha entry: %w", err)
	}
	return angle, true, nil
}

// --- Utility: generate simple background images programmatically ---

func generateRotateBackgrounds(n int, size int) []image.Image {
	if n <= 0 {
		n = 1
	}
	imgs := make([]image.Image, 0, n)
	for i := 0; i < n; i++ {
		imgs = append(imgs, newNoiseGradientImage(size, size))
	}
	return imgs
}

func newNoiseGradientImage(w, h int) image.Image {
	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			// radial gradient + noise
			dx := float64(x - w/2)
			dy := float64(y - h/2)
			t := math.Sqrt(dx*dx+dy*dy) / float64(w/2)
			if t > 1 {
				t = 1
			}
			base := uint8(190 - int(140*t))
			noise := uint8(rand.Intn(24))
			rgba.Set(x, y, color.RGBA{R: base, G: base + noise/2, B: 255 - base/3, A: 255})
		}
	}
	drawRect(rgba, w/8, h/6, w/4, h/10, color.RGBA{R: 255, G: 255, B: 255, A: 40})
	drawRect(rgba, w/2, h/2, w/3, h/12, color.RGBA{R: 0, G: 0, B: 0, A: 28})
	return rgba
}

func drawRect(dst *image.RGBA, x, y, w, h int, c color.RGBA) {
	rect := image.Rect(x, y, x+w, y+h)
	draw.Draw(dst, rect, &image.Uniform{C: c}, image.Point{}, draw.Over)
}
