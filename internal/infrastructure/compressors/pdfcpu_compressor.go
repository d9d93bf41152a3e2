package compressors

import (
	"bytes"
	"fmt"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/filter"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"agreements/internal/domain/entities"
)

// DefaultPDFMinSizeKB is the size floor of both document optimizers
const DefaultPDFMinSizeKB = 200

func init() {
	// Keep pdfcpu from creating its user config directory
	api.DisableConfigDir()
}

// PDFCPUOptimizer rewrites a PDF with pdfcpu: unfiltered streams are Flate
// encoded, objects are packed into compressed object streams and unused or
// duplicate resources are dropped. Page content is not rasterized or altered.
type PDFCPUOptimizer struct {
	MinSizeKB int
}

// NewPDFCPUOptimizer creates a structural optimizer with the default size floor
func NewPDFCPUOptimizer() *PDFCPUOptimizer {
	return &PDFCPUOptimizer{MinSizeKB: DefaultPDFMinSizeKB}
}

// Optimize returns the rewritten document when it is strictly smaller than data
func (p *PDFCPUOptimizer) Optimize(data []byte) (outcome entities.OptimizerOutcome) {
	if len(data) < p.MinSizeKB*1024 {
		return entities.Unchanged(data, entities.ErrBelowThreshold)
	}

	// pdfcpu panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			outcome = entities.Unchanged(data, fmt.Errorf("%w: pdfcpu: %v", entities.ErrDecode, r))
		}
	}()

	ctx, _, _, _, err := api.ReadValidateAndOptimize(bytes.NewReader(data), structuralConfiguration(), time.Now())
	if err != nil {
		return entities.Unchanged(data, fmt.Errorf("%w: pdfcpu optimize: %v", entities.ErrDecode, err))
	}
	if err := compressStreams(ctx); err != nil {
		return entities.Unchanged(data, fmt.Errorf("%w: compress streams: %v", entities.ErrDecode, err))
	}

	var out bytes.Buffer
	if err := api.WriteContext(ctx, &out); err != nil {
		return entities.Unchanged(data, fmt.Errorf("%w: pdfcpu write: %v", entities.ErrDecode, err))
	}

	return entities.KeepSmaller(data, out.Bytes())
}

// compressStreams Flate encodes every stream stored without a filter.
// XMP metadata streams stay readable as plain text.
func compressStreams(ctx *model.Context) error {
	for _, entry := range ctx.Table {
		if entry == nil || entry.Free || entry.Object == nil {
			continue
		}
		sd, ok := entry.Object.(types.StreamDict)
		if !ok || len(sd.FilterPipeline) > 0 {
			continue
		}
		if _, found := sd.Find("Filter"); found {
			continue
		}
		if t := sd.Type(); t != nil && *t == "Metadata" {
			continue
		}

		if sd.Content == nil {
			if err := sd.Decode(); err != nil {
				return err
			}
		}
		if len(sd.Content) == 0 {
			continue
		}

		sd.InsertName("Filter", filter.Flate)
		sd.FilterPipeline = []types.PDFFilter{{Name: filter.Flate}}
		if err := sd.Encode(); err != nil {
			return err
		}
		entry.Object = sd
	}
	return nil
}

func structuralConfiguration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	conf.WriteObjectStream = true
	conf.WriteXRefStream = true
	return conf
}
