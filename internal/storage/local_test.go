package storage

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("images", name)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["images"][0]
}

func TestLocal_SaveAndDelete(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLocal(dir, "/uploads/", 1<<20)
	require.NoError(t, err)

	url, err := l.Save(fileHeader(t, "shirt.png", pngHeader))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "/uploads/"))
	require.True(t, strings.HasSuffix(url, ".png"))

	stored := filepath.Join(dir, filepath.Base(url))
	data, err := os.ReadFile(stored)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)

	require.NoError(t, l.Delete(url))
	_, err = os.Stat(stored)
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, l.Delete(url))
	require.NoError(t, l.Delete("https://cdn.example/x.png"))
}

func TestLocal_Rejects(t *testing.T) {
	l, err := NewLocal(t.TempDir(), "/uploads", 8)
	require.NoError(t, err)

	_, err = l.Save(fileHeader(t, "shirt.png", pngHeader))
	require.ErrorIs(t, err, ErrTooLarge)

	l.MaxBytes = 1 << 20
	_, err = l.Save(fileHeader(t, "notes.txt", []byte("hello world")))
	require.ErrorIs(t, err, ErrUnsupportedType)
}
