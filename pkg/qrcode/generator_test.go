package qrcode_test

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/condokit/pkg/qrcode"
)

func TestPNG(t *testing.T) {
	t.Parallel()

	t.Run("rejects blank content", func(t *testing.T) {
		t.Parallel()

		for _, content := range []string{"", "   \t\n"} {
			img, err := qrcode.PNG(content)
			require.ErrorIs(t, err, qrcode.ErrEmptyContent)
			assert.Nil(t, img)
		}
	})

	t.Run("default size", func(t *testing.T) {
		t.Parallel()

		img, err := qrcode.PNG("https://pay.example.com/inv/123")
		require.NoError(t, err)

		decoded, err := png.Decode(bytes.NewReader(img))
		require.NoError(t, err)
		assert.Equal(t, qrcode.DefaultSize, decoded.Bounds().Dx())
	})

	t.Run("custom size and level", func(t *testing.T) {
		t.Parallel()

		img, err := qrcode.PNG("https://pay.example.com/inv/123",
			qrcode.WithSize(128),
			qrcode.WithRecoveryLevel(qrcode.High),
		)
		require.NoError(t, err)

		decoded, err := png.Decode(bytes.NewReader(img))
		require.NoError(t, err)
		assert.Equal(t, 128, decoded.Bounds().Dx())
	})

	t.Run("non-positive size keeps default", func(t *testing.T) {
		t.Parallel()

		img, err := qrcode.PNG("invoice", qrcode.WithSize(-5))
		require.NoError(t, err)

		decoded, err := png.Decode(bytes.NewReader(img))
		require.NoError(t, err)
		assert.Equal(t, qrcode.DefaultSize, decoded.Bounds().Dx())
	})
}

func TestDataURI(t *testing.T) {
	t.Parallel()

	uri, err := qrcode.DataURI("https://pay.example.com/inv/123")
	require.NoError(t, err)

	const prefix = "data:image/png;base64,"
	require.True(t, strings.HasPrefix(uri, prefix))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, prefix))
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)

	_, err = qrcode.DataURI(" ")
	assert.ErrorIs(t, err, qrcode.ErrEmptyContent)
}
