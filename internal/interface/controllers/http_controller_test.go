package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agreements/internal/domain/entities"
	"agreements/internal/infrastructure/encoding"
	"agreements/internal/infrastructure/logging"
	"agreements/internal/infrastructure/storage"
	"agreements/internal/interface/controllers"
	usecases "agreements/internal/usecase"
)

// halvingEngine stands in for the compression engine
type halvingEngine struct{}

func (halvingEngine) Compress(_ context.Context, filename string, data []byte) *entities.CompressionResult {
	return entities.NewCompressionResult(filename, data, data[:len(data)/2], entities.AlgorithmImageRequantize, true)
}

func newTestServer(t *testing.T, opts controllers.HTTPOptions) *httptest.Server {
	t.Helper()

	store := storage.NewMemoryStorage()
	codec := encoding.NewAgreementCodec()
	logger := logging.NewNop()

	controller := controllers.NewHTTPController(
		usecases.NewUploadAgreementUseCase(halvingEngine{}, store, codec, logger, "agreements", "K"),
		usecases.NewListAgreementsUseCase(store, "agreements"),
		usecases.NewDownloadAgreementUseCase(store, codec, "agreements"),
		logger,
		opts,
	)

	server := httptest.NewServer(controller.Router())
	t.Cleanup(server.Close)
	return server
}

func defaultOptions() controllers.HTTPOptions {
	return controllers.HTTPOptions{MaxUploadBytes: 1 << 20, MaxConcurrentCompressions: 2}
}

func multipartBody(t *testing.T, field, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &body, w.FormDataContentType()
}

func upload(t *testing.T, server *httptest.Server, filename string, data []byte) *http.Response {
	t.Helper()

	body, contentType := multipartBody(t, "file", filename, data)
	resp, err := http.Post(server.URL+"/agreements/upload", contentType, body)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestUploadListDownload(t *testing.T) {
	server := newTestServer(t, defaultOptions())
	data := bytes.Repeat([]byte{0xff, 0xd8}, 500)

	resp := upload(t, server, "scan.jpg", data)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var receipt usecases.UploadReceipt
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&receipt))
	assert.NotEmpty(t, receipt.UserID)
	assert.Regexp(t, `^\d{8}_\d{6}$`, receipt.Timestamp)
	assert.Equal(t, "K/"+receipt.UserID+"/"+receipt.Timestamp+"/upload_pdf/scan.jpg", receipt.ObjectKey)
	assert.Equal(t, "K/"+receipt.UserID+"/"+receipt.Timestamp+"/upload_pdf/metadata.pb", receipt.MetadataKey)
	assert.Equal(t, entities.AlgorithmImageRequantize, receipt.Compression.Algorithm)
	assert.Equal(t, uint64(1000), receipt.Compression.OriginalSize)
	assert.Equal(t, uint64(500), receipt.Compression.OptimizedSize)

	listResp, err := http.Get(server.URL + "/agreements/K/" + receipt.UserID)
	require.NoError(t, err)
	defer listResp.Body.Close()
	require.Equal(t, http.StatusOK, listResp.StatusCode)

	var listed controllers.ListResponse
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&listed))
	assert.ElementsMatch(t, []string{receipt.ObjectKey, receipt.MetadataKey}, listed.Files)

	getResp, err := http.Get(server.URL + "/agreements/object?key=" + url.QueryEscape(receipt.ObjectKey))
	require.NoError(t, err)
	defer getResp.Body.Close()
	require.Equal(t, http.StatusOK, getResp.StatusCode)
	assert.Equal(t, "image_requantize", getResp.Header.Get("X-Compression"))

	body, err := io.ReadAll(getResp.Body)
	require.NoError(t, err)
	assert.Equal(t, data[:500], body)
}

func TestMetadataRecord(t *testing.T) {
	server := newTestServer(t, defaultOptions())

	resp := upload(t, server, "lease.pdf", bytes.Repeat([]byte("%PDF"), 100))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var receipt usecases.UploadReceipt
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&receipt))

	metaResp, err := http.Get(server.URL + "/agreements/metadata?key=" + url.QueryEscape(receipt.MetadataKey))
	require.NoError(t, err)
	defer metaResp.Body.Close()
	require.Equal(t, http.StatusOK, metaResp.StatusCode)

	var record controllers.MetadataResponse
	require.NoError(t, json.NewDecoder(metaResp.Body).Decode(&record))
	assert.NotEmpty(t, record.AgreementID)
	assert.Equal(t, receipt.UserID, record.UserID)
	assert.Equal(t, "K", record.Disk)
	assert.Equal(t, "lease.pdf", record.FileName)
	assert.Equal(t, int64(200), record.FileSize)
	assert.Equal(t, receipt.Timestamp, record.CreatedAt.UTC().Format(entities.TimestampLayout))

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"missing key", "", http.StatusBadRequest},
		{"unknown key", "?key=K/u/t/upload_pdf/metadata.pb", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(server.URL + "/agreements/metadata" + tt.query)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestUploadRejections(t *testing.T) {
	server := newTestServer(t, controllers.HTTPOptions{MaxUploadBytes: 4096})

	tests := []struct {
		name     string
		filename string
		data     []byte
		want     int
	}{
		{"unsupported extension", "photo.png", []byte("x"), http.StatusBadRequest},
		{"empty payload", "a.pdf", nil, http.StatusBadRequest},
		{"too large", "a.pdf", make([]byte, 8192), http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := upload(t, server, tt.filename, tt.data)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestUploadMissingField(t *testing.T) {
	server := newTestServer(t, defaultOptions())

	body, contentType := multipartBody(t, "document", "a.pdf", []byte("%PDF"))
	resp, err := http.Post(server.URL+"/agreements/upload", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDownloadNotFound(t *testing.T) {
	server := newTestServer(t, defaultOptions())

	resp, err := http.Get(server.URL + "/agreements/object?key=K/u/t/upload_pdf/a.pdf")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp2, err := http.Get(server.URL + "/agreements/object")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)
}

func TestRateLimit(t *testing.T) {
	server := newTestServer(t, controllers.HTTPOptions{
		MaxUploadBytes:     1 << 20,
		RateLimitPerSecond: 0.001,
		RateLimitBurst:     2,
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := http.Get(server.URL + "/agreements/K/someone")
		require.NoError(t, err)
		resp.Body.Close()
		codes = append(codes, resp.StatusCode)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestHealthz(t *testing.T) {
	server := newTestServer(t, defaultOptions())

	resp, err := http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
