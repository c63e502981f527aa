package paint

import (
	"image"
	"image/draw"
)

// Surface is a drawable the size of the window. Drawing lands in Image and
// becomes visible on Flush.
type Surface interface {
	Image() draw.Image
	Size() image.Point
	Flush() error
}

// Window is the native window behind a surface.
type Window interface {
	// Resize changes the window dimensions and returns a new surface of
	// that size, replacing the previous one.
	Resize(width, height int) (Surface, error)
}

// ImageSurface is a Surface kept in memory.
type ImageSurface struct {
	img     *image.RGBA
	flushes int
}

func NewImageSurface(width, height int) *ImageSurface {
	return &ImageSurface{img: image.NewRGBA(image.Rect(0, 0, width, height))}
}

func (s *ImageSurface) Image() draw.Image { return s.img }
func (s *ImageSurface) RGBA() *image.RGBA { return s.img }
func (s *ImageSurface) Size() image.Point { return s.img.Bounds().Size() }

func (s *ImageSurface) Flush() error {
	s.flushes++
	return nil
}

// Flushes counts calls to Flush.
func (s *ImageSurface) Flushes() int { return s.flushes }
