package entities

// Default thresholds for scan detection
const (
	DefaultScanImageThreshold   = 2
	DefaultScanTextOpsThreshold = 10
)

// DocumentClassification describes whether a document looks like a scan.
// It is advisory and never persisted.
type DocumentClassification struct {
	IsScanLike bool
	Images     int
	TextOps    int
}

// ClassifyCounts applies the scan heuristic to counted images and text operators
func ClassifyCounts(images, textOps, imageThreshold, textOpsThreshold int) DocumentClassification {
	return DocumentClassification{
		IsScanLike: images >= imageThreshold && textOps <= textOpsThreshold,
		Images:     images,
		TextOps:    textOps,
	}
}
