package compressors_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agreements/internal/infrastructure/compressors"
)

func TestPDFClassifier_Classify(t *testing.T) {
	tests := []struct {
		name        string
		pages       []fixturePage
		opts        fixtureOptions
		wantScan    bool
		wantImages  int
		wantTextOps int
	}{
		{
			name:        "three images and no text on a single page",
			pages:       []fixturePage{{images: 3, content: imageContent(0, 3)}},
			wantScan:    true,
			wantImages:  3,
			wantTextOps: 0,
		},
		{
			name:        "text only page",
			pages:       []fixturePage{{images: 0, content: textContent(50)}},
			wantScan:    false,
			wantImages:  0,
			wantTextOps: 50,
		},
		{
			name:        "thresholds are inclusive",
			pages:       []fixturePage{{images: 2, content: imageContent(0, 2) + textContent(10)}},
			wantScan:    true,
			wantImages:  2,
			wantTextOps: 10,
		},
		{
			name:        "one text operator too many",
			pages:       []fixturePage{{images: 2, content: imageContent(0, 2) + textContent(11)}},
			wantScan:    false,
			wantImages:  2,
			wantTextOps: 11,
		},
		{
			name: "counts add up across pages",
			pages: []fixturePage{
				{images: 1, content: imageContent(0, 1)},
				{images: 1, content: imageContent(1, 1) + textContent(4)},
			},
			wantScan:    true,
			wantImages:  2,
			wantTextOps: 4,
		},
		{
			name:        "resources inherited from the page tree",
			pages:       []fixturePage{{images: 3, content: imageContent(0, 3)}},
			opts:        fixtureOptions{inheritResources: true},
			wantScan:    true,
			wantImages:  3,
			wantTextOps: 0,
		},
	}

	classifier := compressors.NewPDFClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := buildPDF(tt.pages, tt.opts)

			images, textOps, err := compressors.CountPageContent(data)
			require.NoError(t, err)
			assert.Equal(t, tt.wantImages, images)
			assert.Equal(t, tt.wantTextOps, textOps)

			got := classifier.Classify(data)
			assert.Equal(t, tt.wantScan, got.IsScanLike)
			assert.Equal(t, tt.wantScan, classifier.IsScanLike(data))
		})
	}
}

func TestPDFClassifier_UnreadableInputIsNotScanLike(t *testing.T) {
	classifier := compressors.NewPDFClassifier()

	for name, data := range map[string][]byte{
		"empty":     nil,
		"garbage":   []byte("definitely not a pdf"),
		"truncated": buildPDF([]fixturePage{{images: 3}}, fixtureOptions{})[:40],
	} {
		t.Run(name, func(t *testing.T) {
			assert.False(t, classifier.IsScanLike(data))
		})
	}
}

func TestPDFClassifier_CustomThresholds(t *testing.T) {
	data := buildPDF([]fixturePage{{images: 3, content: imageContent(0, 3)}}, fixtureOptions{})

	strict := &compressors.PDFClassifier{ImageThreshold: 4, TextOpsThreshold: 10}
	assert.False(t, strict.IsScanLike(data))
}
