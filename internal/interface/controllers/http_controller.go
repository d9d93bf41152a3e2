package controllers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"path"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"agreements/internal/domain/entities"
	"agreements/internal/domain/repositories"
	usecases "agreements/internal/usecase"
)

// multipartMemory is how much of a multipart body is kept in memory before
// spilling to temporary files
const multipartMemory = 32 << 20

// HTTPOptions tunes the HTTP boundary
type HTTPOptions struct {
	MaxUploadBytes int64
	// Zero or less disables the limit
	MaxConcurrentCompressions int64
	// Zero or less disables rate limiting
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// HTTPController serves the agreement upload API
type HTTPController struct {
	upload   *usecases.UploadAgreementUseCase
	list     *usecases.ListAgreementsUseCase
	download *usecases.DownloadAgreementUseCase
	logger   repositories.Logger
	opts     HTTPOptions

	compressions *semaphore.Weighted
	limiters     sync.Map
}

// NewHTTPController creates the controller
func NewHTTPController(
	upload *usecases.UploadAgreementUseCase,
	list *usecases.ListAgreementsUseCase,
	download *usecases.DownloadAgreementUseCase,
	logger repositories.Logger,
	opts HTTPOptions,
) *HTTPController {
	c := &HTTPController{
		upload:   upload,
		list:     list,
		download: download,
		logger:   logger,
		opts:     opts,
	}
	if opts.MaxConcurrentCompressions > 0 {
		c.compressions = semaphore.NewWeighted(opts.MaxConcurrentCompressions)
	}
	return c
}

// Router returns the HTTP handler with all routes
func (c *HTTPController) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(c.requestLogger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/agreements", func(r chi.Router) {
		r.Use(c.rateLimit)

		r.Post("/upload", c.Upload)
		r.Get("/object", c.Download)
		r.Get("/metadata", c.Metadata)
		r.Get("/{disk}/{userID}", c.List)
	})

	return r
}

// Upload handles POST /agreements/upload with a multipart "file" field
func (c *HTTPController) Upload(w http.ResponseWriter, r *http.Request) {
	if c.opts.MaxUploadBytes > 0 {
		if r.ContentLength > c.opts.MaxUploadBytes {
			writeError(w, http.StatusRequestEntityTooLarge, "file is too large")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, c.opts.MaxUploadBytes)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "file is too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read upload")
		return
	}

	if err := c.upload.Validate(header.Filename, data); err != nil {
		c.writeUseCaseError(w, err)
		return
	}

	if c.compressions != nil {
		if err := c.compressions.Acquire(r.Context(), 1); err != nil {
			writeError(w, http.StatusServiceUnavailable, "server busy")
			return
		}
		defer c.compressions.Release(1)
	}

	receipt, err := c.upload.Execute(r.Context(), usecases.UploadRequest{
		FileName:    header.Filename,
		Data:        data,
		ContentType: header.Header.Get("Content-Type"),
	})
	if err != nil {
		c.writeUseCaseError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, receipt)
}

// ListResponse is the body of GET /agreements/{disk}/{userID}
type ListResponse struct {
	Disk   string   `json:"disk"`
	UserID string   `json:"user_uuid"`
	Files  []string `json:"files"`
}

// List handles GET /agreements/{disk}/{userID}
func (c *HTTPController) List(w http.ResponseWriter, r *http.Request) {
	disk := chi.URLParam(r, "disk")
	userID := chi.URLParam(r, "userID")

	keys, err := c.list.Execute(r.Context(), disk, userID)
	if err != nil {
		c.writeUseCaseError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ListResponse{Disk: disk, UserID: userID, Files: keys})
}

// Download handles GET /agreements/object?key=...
func (c *HTTPController) Download(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "key is required")
		return
	}

	obj, err := c.download.Execute(r.Context(), key)
	if err != nil {
		c.writeUseCaseError(w, err)
		return
	}

	name := path.Base(obj.Key)
	contentType := obj.ContentType
	if contentType == "" {
		contentType = entities.ContentTypeOctet
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	if algorithm, ok := obj.Metadata["compression"]; ok {
		w.Header().Set("X-Compression", algorithm)
	}
	http.ServeContent(w, r, name, obj.LastModified, bytes.NewReader(obj.Body))
}

// MetadataResponse is the body of GET /agreements/metadata
type MetadataResponse struct {
	AgreementID string    `json:"agreement_id"`
	UserID      string    `json:"user_uuid"`
	Disk        string    `json:"disk"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	FileSize    int64     `json:"file_size"`
	CreatedAt   time.Time `json:"created_at"`
}

// Metadata handles GET /agreements/metadata?key=... and returns the decoded
// metadata record
func (c *HTTPController) Metadata(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "key is required")
		return
	}

	record, err := c.download.Metadata(r.Context(), key)
	if err != nil {
		c.writeUseCaseError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, MetadataResponse{
		AgreementID: record.AgreementID,
		UserID:      record.UserID,
		Disk:        record.Disk,
		FileName:    record.FileName,
		ContentType: record.ContentType,
		FileSize:    record.FileSize,
		CreatedAt:   record.CreatedAt,
	})
}

func (c *HTTPController) writeUseCaseError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entities.ErrUnsupportedFileType),
		errors.Is(err, entities.ErrEmptyPayload),
		errors.Is(err, entities.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, entities.ErrObjectNotFound):
		writeError(w, http.StatusNotFound, "object not found")
	case errors.Is(err, entities.ErrDecode):
		writeError(w, http.StatusUnprocessableEntity, "object is not a metadata record")
	default:
		if c.logger != nil {
			c.logger.Error("request failed: %v", err)
		}
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// rateLimit rejects clients exceeding their per-IP token bucket
func (c *HTTPController) rateLimit(next http.Handler) http.Handler {
	if c.opts.RateLimitPerSecond <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !c.limiterFor(clientIP(r)).Allow() {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (c *HTTPController) limiterFor(ip string) *rate.Limiter {
	if v, ok := c.limiters.Load(ip); ok {
		return v.(*rate.Limiter)
	}

	burst := c.opts.RateLimitBurst
	if burst <= 0 {
		burst = 1
	}
	limiter, _ := c.limiters.LoadOrStore(ip, rate.NewLimiter(rate.Limit(c.opts.RateLimitPerSecond), burst))
	return limiter.(*rate.Limiter)
}

func (c *HTTPController) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		if c.logger != nil {
			c.logger.Info("%s %s -> %d (%d bytes, %s) id=%s",
				r.Method, r.URL.Path, ww.Status(), ww.BytesWritten(),
				time.Since(start).Round(time.Millisecond), chimiddleware.GetReqID(r.Context()))
		}
	})
}

// clientIP returns the host part of RemoteAddr, which RealIP has already
// rewritten from forwarding headers
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
