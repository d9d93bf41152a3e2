package compressors

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/model"
	"github.com/unidoc/unipdf/v3/model/optimize"

	"agreements/internal/domain/entities"
)

var (
	licenseOnce sync.Once
	licenseErr  error
)

// UniPDFOptimizer rewrites a PDF with UniPDF using only lossless optimizer
// passes. UniPDF needs a metered license key; without one every call reports
// the input unchanged.
type UniPDFOptimizer struct {
	MinSizeKB  int
	LicenseKey string
}

// NewUniPDFOptimizer creates a structural optimizer backed by UniPDF
func NewUniPDFOptimizer(licenseKey string) *UniPDFOptimizer {
	return &UniPDFOptimizer{
		MinSizeKB:  DefaultPDFMinSizeKB,
		LicenseKey: licenseKey,
	}
}

// Optimize returns the rewritten document when it is strictly smaller than data
func (u *UniPDFOptimizer) Optimize(data []byte) (outcome entities.OptimizerOutcome) {
	if len(data) < u.MinSizeKB*1024 {
		return entities.Unchanged(data, entities.ErrBelowThreshold)
	}
	if err := u.activate(); err != nil {
		return entities.Unchanged(data, err)
	}

	defer func() {
		if r := recover(); r != nil {
			outcome = entities.Unchanged(data, fmt.Errorf("%w: unipdf: %v", entities.ErrDecode, r))
		}
	}()

	pdfReader, err := model.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		return entities.Unchanged(data, fmt.Errorf("%w: open document: %v", entities.ErrDecode, err))
	}

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return entities.Unchanged(data, fmt.Errorf("%w: page count: %v", entities.ErrDecode, err))
	}

	pdfWriter := model.NewPdfWriter()
	pdfWriter.SetOptimizer(optimize.New(optimize.Options{
		CombineDuplicateStreams:         true,
		CombineDuplicateDirectObjects:   true,
		CombineIdenticalIndirectObjects: true,
		UseObjectStreams:                true,
		CompressStreams:                 true,
	}))

	for i := 1; i <= numPages; i++ {
		page, err := pdfReader.GetPage(i)
		if err != nil {
			return entities.Unchanged(data, fmt.Errorf("%w: page %d: %v", entities.ErrDecode, i, err))
		}
		if err := pdfWriter.AddPage(page); err != nil {
			return entities.Unchanged(data, fmt.Errorf("%w: add page %d: %v", entities.ErrDecode, i, err))
		}
	}

	var out bytes.Buffer
	if err := pdfWriter.Write(&out); err != nil {
		return entities.Unchanged(data, fmt.Errorf("%w: write document: %v", entities.ErrDecode, err))
	}

	return entities.KeepSmaller(data, out.Bytes())
}

// activate installs the license key once per process
func (u *UniPDFOptimizer) activate() error {
	if u.LicenseKey == "" {
		return entities.ErrLicenseMissing
	}
	licenseOnce.Do(func() {
		licenseErr = license.SetMeteredKey(u.LicenseKey)
	})
	if licenseErr != nil {
		return fmt.Errorf("%w: %v", entities.ErrLicenseMissing, licenseErr)
	}
	return nil
}
