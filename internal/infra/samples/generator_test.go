package samples

import (
	"bytes"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		name   string
		sample string
		width  int
		height int
	}{
		{"red rectangle is landscape", RedRectangle, 400, 300},
		{"blue square is square", BlueSquare, 300, 300},
		{"gradient is portrait", Gradient, 200, 400},
		{"checkerboard is square", Checkerboard, 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := Generate(tt.sample)
			require.NoError(t, err)
			assert.Equal(t, tt.width, img.Width)
			assert.Equal(t, tt.height, img.Height)
			assert.NotEmpty(t, img.PNG)

			// payload must round-trip as a decodable PNG
			decoded, err := imaging.Decode(bytes.NewReader(img.PNG))
			require.NoError(t, err)
			assert.Equal(t, tt.width, decoded.Bounds().Dx())
			assert.Equal(t, tt.height, decoded.Bounds().Dy())
		})
	}
}

func TestGenerateUnknownSample(t *testing.T) {
	_, err := Generate("mona-lisa")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown sample")
}

func TestNamesCoverEverySample(t *testing.T) {
	for _, name := range Names() {
		img, err := Generate(name)
		require.NoError(t, err, name)
		assert.False(t, img.Empty())
	}
}
