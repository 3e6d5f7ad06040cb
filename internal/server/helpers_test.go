package server

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MeKo-Tech/digitread/internal/models"
	"github.com/MeKo-Tech/digitread/internal/pipeline"
	"github.com/MeKo-Tech/digitread/internal/testutil"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	server *Server
	store  *models.Store
	dir    string
}

// newFixture builds a server over template models. With load false the
// store starts empty.
func newFixture(t *testing.T, load bool, cfg Config) *fixture {
	t.Helper()
	dir := t.TempDir()
	for _, kind := range []models.Kind{models.KindSVM, models.KindKNN} {
		_, err := testutil.WriteTemplateArtifact(dir, kind)
		require.NoError(t, err)
	}
	store := models.NewStore(models.StoreConfig{ModelsDir: dir})
	if load {
		_, err := store.Load(models.KindSVM, "")
		require.NoError(t, err)
	}
	pl, err := pipeline.New(pipeline.DefaultConfig(), store)
	require.NoError(t, err)

	srv, err := NewServer(cfg, pl, store)
	require.NoError(t, err)
	return &fixture{server: srv, store: store, dir: dir}
}

func digitsPNG(t *testing.T, text string) []byte {
	t.Helper()
	return testutil.PNGBytes(t, testutil.RenderDigits(text, testutil.DefaultRenderOptions()))
}

func newPredictRequest(t *testing.T, image []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if image != nil {
		part, err := mw.CreateFormFile("image", "digits.png")
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/predict", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}
