package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"mime/multipart"
	"path/filepath"
	"strings"

	_ "image/gif"

	"github.com/disintegration/imaging"
	"github.com/stivenPRO500/siembrasApp/internal/models"
	"github.com/stivenPRO500/siembrasApp/internal/storage"
	"github.com/stivenPRO500/siembrasApp/internal/utils"
)

const (
	// MaxUploadSize bounds incoming image files (catalog photos and payment
	// proofs are phone shots, not originals).
	MaxUploadSize = 10 << 20

	// maxImageWidth is the longest side kept after downscaling.
	maxImageWidth = 1600
)

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

// UploadService validates, downscales and stores uploaded images behind the
// configured storage driver.
type UploadService struct {
	driver storage.Driver
}

func NewUploadService(driver storage.Driver) *UploadService {
	return &UploadService{driver: driver}
}

// SaveImage processes one uploaded image and stores it under folder,
// returning the public URL. Oversized originals are resized down; the
// stored format follows the source (GIFs are re-encoded as JPEG).
func (s *UploadService) SaveImage(ctx context.Context, header *multipart.FileHeader, folder string) (string, error) {
	if header.Size > MaxUploadSize {
		return "", fmt.Errorf("%w: file exceeds %d bytes", models.ErrValidation, MaxUploadSize)
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		return "", fmt.Errorf("%w: unsupported file type %q", models.ErrValidation, ext)
	}

	src, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	img, format, err := image.Decode(src)
	if err != nil {
		return "", fmt.Errorf("%w: not a decodable image", models.ErrValidation)
	}

	if img.Bounds().Dx() > maxImageWidth || img.Bounds().Dy() > maxImageWidth {
		img = imaging.Fit(img, maxImageWidth, maxImageWidth, imaging.Lanczos)
	}

	var buf bytes.Buffer
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	default:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85})
		ext = ".jpg"
	}
	if err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}

	key := utils.GenerateUploadKey(folder, "image"+ext)
	url, err := s.driver.Upload(ctx, &buf, key)
	if err != nil {
		return "", fmt.Errorf("failed to store image: %w", err)
	}
	return url, nil
}
