package upload_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rongwang/property-rental-server/internal/apperrors"
	"github.com/rongwang/property-rental-server/internal/upload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pngHeader is the 8-byte PNG signature followed by an IHDR chunk start.
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 13, 'I', 'H', 'D', 'R'}

func TestValidateImageExtensions(t *testing.T) {
	for _, name := range []string{"a.jpg", "b.JPEG", "c.png", "d.gif"} {
		img, err := upload.ValidateImage("image", name, pngHeader, 0)
		assert.NoError(t, err, name)
		assert.NotNil(t, img, name)
	}

	for _, name := range []string{"a.bmp", "b.tiff", "noext", "c.png.exe"} {
		img, err := upload.ValidateImage("image", name, pngHeader, 0)
		assert.Nil(t, img, name)
		v, ok := apperrors.AsValidation(err)
		require.True(t, ok, name)
		assert.True(t, v.Has("image"), name)
	}
}

func TestValidateImageKeepsBytes(t *testing.T) {
	img, err := upload.ValidateImage("image", "photo.png", pngHeader, 0)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, img.Data)
	assert.Equal(t, "image/png", img.ContentType)
}

func TestValidateImageEmptyIsNoImage(t *testing.T) {
	img, err := upload.ValidateImage("image", "photo.bmp", nil, 0)
	assert.NoError(t, err)
	assert.Nil(t, img)
}

func TestValidateImageTooLarge(t *testing.T) {
	_, err := upload.ValidateImage("image", "photo.png", make([]byte, 11), 10)
	v, ok := apperrors.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "validation_max", v.Fields[0].Code)
}

func TestReadFormFile(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("image", "photo.png")
	require.NoError(t, err)
	_, err = fw.Write(pngHeader)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))

	_, fh, err := req.FormFile("image")
	require.NoError(t, err)

	img, err := upload.ReadFormFile("image", fh, 0)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, img.Data)

	img, err = upload.ReadFormFile("image", nil, 0)
	assert.NoError(t, err)
	assert.Nil(t, img)
}
