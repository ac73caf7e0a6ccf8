package frame

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/google/uuid"
	_ "golang.org/x/image/webp"
)

// Image is a decoded frame held for display. The synchronizer owns it and
// releases it exactly once, after the frame that replaces it has been
// painted.
type Image struct {
	ID     uuid.UUID
	Format string
	Width  int
	Height int

	pixels   image.Image
	released bool
}

// Decode turns fetched bytes into an Image.
func Decode(data []byte) (*Image, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("decode frame: empty %s image", format)
	}
	return NewImage(img, format), nil
}

// NewImage wraps already decoded pixels.
func NewImage(img image.Image, format string) *Image {
	b := img.Bounds()
	return &Image{
		ID:     uuid.New(),
		Format: format,
		Width:  b.Dx(),
		Height: b.Dy(),
		pixels: img,
	}
}

// Pixels returns the decoded image, or nil once released.
func (im *Image) Pixels() image.Image { return im.pixels }

// Aspect is width / height.
func (im *Image) Aspect() float64 {
	if im.Height == 0 {
		return 0
	}
	return float64(im.Width) / float64(im.Height)
}

// Released reports whether release has run.
func (im *Image) Released() bool { return im.released }

// release drops the pixel buffer. It reports false when the image was
// already released.
func (im *Image) release() bool {
	if im.released {
		return false
	}
	im.released = true
	im.pixels = nil
	return true
}
