package samples

import (
	"fmt"
	"image"
	"image/color"
	"sort"

	"github.com/bryanwahyu/vision-relay/internal/domain/images"
)

// Built-in test images for exercising the analysis endpoint without an
// upload: solid shapes in both orientations, a gradient, and a pattern.
const (
	RedRectangle = "red-rectangle"
	BlueSquare   = "blue-square"
	Gradient     = "gradient"
	Checkerboard = "checkerboard"
)

// Names lists the available samples in stable order.
func Names() []string {
	names := []string{RedRectangle, BlueSquare, Gradient, Checkerboard}
	sort.Strings(names)
	return names
}

// Generate builds the named sample image.
func Generate(name string) (*images.Image, error) {
	var src image.Image
	switch name {
	case RedRectangle:
		src = solid(400, 300, color.RGBA{R: 255, A: 255})
	case BlueSquare:
		src = solid(300, 300, color.RGBA{B: 255, A: 255})
	case Gradient:
		src = gradient(200, 400)
	case Checkerboard:
		src = checkerboard(100, 100, 10)
	default:
		return nil, fmt.Errorf("unknown sample: %s", name)
	}
	return images.FromImage(src)
}

func solid(w, h int, c color.RGBA) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func gradient(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(x % 256),
				G: uint8(y % 256),
				B: uint8((x + y) % 256),
				A: 255,
			})
		}
	}
	return img
}

func checkerboard(w, h, cell int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x/cell+y/cell)%2 == 1 {
				img.Set(x, y, color.RGBA{A: 255})
			} else {
				img.Set(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
			}
		}
	}
	return img
}
