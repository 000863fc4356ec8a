package businessflow

import (
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"

	"github.com/amirphl/property-guru/app/services"
	"github.com/amirphl/property-guru/models"
)

// uploadTemp pushes a temp file to media storage and always removes it afterwards.
// A failed upload yields nil; callers decide whether that is fatal.
func uploadTemp(ctx context.Context, uploader services.MediaUploader, path, folder, resourceType string) (ref *models.MediaRef) {
	if path == "" {
		return nil
	}
	defer removeTemp(path)
	defer func() {
		if r := recover(); r != nil {
			log.Printf("media upload panicked for %s: %v", filepath.Base(path), r)
			ref = nil
		}
	}()

	if uploader == nil {
		log.Printf("media upload skipped for %s: no uploader configured", filepath.Base(path))
		return nil
	}

	res, err := uploader.Upload(ctx, path, folder, resourceType)
	if err != nil {
		log.Printf("media upload failed for %s: %v", filepath.Base(path), err)
		return nil
	}
	if res == nil || res.URL == "" {
		log.Printf("media upload returned no url for %s", filepath.Base(path))
		return nil
	}

	return &models.MediaRef{URL: res.URL, PublicID: res.PublicID}
}

func removeTemp(paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Printf("failed to remove temp file %s: %v", filepath.Base(p), err)
		}
	}
}
