package compressors

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"agreements/internal/domain/entities"
)

// textOperators are the content stream operators counted as text drawing:
// show text, show text array and set font.
var textOperators = [][]byte{[]byte("Tj"), []byte("TJ"), []byte("Tf")}

var errPageTreeCycle = errors.New("page tree contains a cycle")

// PDFClassifier detects scan-like documents: many embedded images and
// almost no text operators across all pages.
type PDFClassifier struct {
	ImageThreshold   int
	TextOpsThreshold int
}

// NewPDFClassifier creates a classifier with the default thresholds
func NewPDFClassifier() *PDFClassifier {
	return &PDFClassifier{
		ImageThreshold:   entities.DefaultScanImageThreshold,
		TextOpsThreshold: entities.DefaultScanTextOpsThreshold,
	}
}

// IsScanLike reports whether data looks like a scanned document
func (c *PDFClassifier) IsScanLike(data []byte) bool {
	return c.Classify(data).IsScanLike
}

// Classify counts images and text operators. A document that cannot be
// parsed is never reported as scan-like.
func (c *PDFClassifier) Classify(data []byte) (result entities.DocumentClassification) {
	defer func() {
		if r := recover(); r != nil {
			result = entities.DocumentClassification{}
		}
	}()

	images, textOps, err := CountPageContent(data)
	if err != nil {
		return entities.DocumentClassification{}
	}
	return entities.ClassifyCounts(images, textOps, c.ImageThreshold, c.TextOpsThreshold)
}

// CountPageContent returns the number of image XObjects and text operators
// over all pages of the document.
func CountPageContent(data []byte) (images, textOps int, err error) {
	ctx, err := api.ReadContext(bytes.NewReader(data), structuralConfiguration())
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", entities.ErrDecode, err)
	}

	catalog, err := ctx.Catalog()
	if err != nil {
		return 0, 0, fmt.Errorf("%w: catalog: %v", entities.ErrDecode, err)
	}
	pages, found := catalog.Find("Pages")
	if !found {
		return 0, 0, fmt.Errorf("%w: catalog has no page tree", entities.ErrDecode)
	}

	w := &pageWalker{ctx: ctx, visited: map[int]bool{}}
	if err := w.walk(pages, nil); err != nil {
		return 0, 0, fmt.Errorf("%w: %v", entities.ErrDecode, err)
	}
	return w.images, w.textOps, nil
}

type pageWalker struct {
	ctx     *model.Context
	visited map[int]bool
	images  int
	textOps int
}

// walk visits a page tree node, passing inherited resources down to the leaves
func (w *pageWalker) walk(node types.Object, inherited types.Dict) error {
	if ref, ok := node.(types.IndirectRef); ok {
		nr := ref.ObjectNumber.Value()
		if w.visited[nr] {
			return errPageTreeCycle
		}
		w.visited[nr] = true
	}

	d, err := w.ctx.DereferenceDict(node)
	if err != nil {
		return err
	}
	if d == nil {
		return errors.New("missing page tree node")
	}

	resources := inherited
	if obj, found := d.Find("Resources"); found {
		if rd, err := w.ctx.DereferenceDict(obj); err == nil && rd != nil {
			resources = rd
		}
	}

	if kids, found := d.Find("Kids"); found {
		arr, err := w.ctx.DereferenceArray(kids)
		if err != nil {
			return err
		}
		for _, kid := range arr {
			if err := w.walk(kid, resources); err != nil {
				return err
			}
		}
		return nil
	}

	w.images += w.countImages(resources)
	w.textOps += countTextOperators(w.pageContent(d))
	return nil
}

// countImages counts XObjects of subtype Image. Unreadable entries are skipped.
func (w *pageWalker) countImages(resources types.Dict) int {
	if resources == nil {
		return 0
	}
	obj, found := resources.Find("XObject")
	if !found {
		return 0
	}
	xobjects, err := w.ctx.DereferenceDict(obj)
	if err != nil || xobjects == nil {
		return 0
	}

	count := 0
	for _, entry := range xobjects {
		o, err := w.ctx.Dereference(entry)
		if err != nil {
			continue
		}
		var dict types.Dict
		switch sd := o.(type) {
		case types.StreamDict:
			dict = sd.Dict
		case *types.StreamDict:
			dict = sd.Dict
		default:
			continue
		}
		if subtype := dict.NameEntry("Subtype"); subtype != nil && *subtype == "Image" {
			count++
		}
	}
	return count
}

// pageContent returns the decoded bytes of all content streams of a page.
// Any read failure yields no content for that page.
func (w *pageWalker) pageContent(page types.Dict) []byte {
	obj, found := page.Find("Contents")
	if !found {
		return nil
	}
	o, err := w.ctx.Dereference(obj)
	if err != nil {
		return nil
	}

	var streams []types.Object
	if arr, ok := o.(types.Array); ok {
		streams = arr
	} else {
		streams = []types.Object{o}
	}

	var content []byte
	for _, s := range streams {
		so, err := w.ctx.Dereference(s)
		if err != nil {
			return nil
		}
		var sd types.StreamDict
		switch v := so.(type) {
		case types.StreamDict:
			sd = v
		case *types.StreamDict:
			sd = *v
		default:
			continue
		}
		if sd.Content == nil {
			if err := sd.Decode(); err != nil {
				return nil
			}
		}
		content = append(content, sd.Content...)
	}
	return content
}

func countTextOperators(content []byte) int {
	n := 0
	for _, op := range textOperators {
		n += bytes.Count(content, op)
	}
	return n
}
