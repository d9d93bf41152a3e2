package entities

import (
	"crypto/sha256"
	"encoding/hex"
)

// Algorithm identifies the optimization strategy chosen for a file
type Algorithm string

const (
	AlgorithmNone                    Algorithm = "none"
	AlgorithmImageRequantize         Algorithm = "image_requantize"
	AlgorithmDocAggressiveRebuild    Algorithm = "doc_aggressive_rebuild"
	AlgorithmDocStructuralRecompress Algorithm = "doc_structural_recompress"
)

func (a Algorithm) String() string {
	return string(a)
}

// Digest is a SHA-256 content hash
type Digest [sha256.Size]byte

// DigestOf hashes data
func DigestOf(data []byte) Digest {
	return Digest(sha256.Sum256(data))
}

// String returns the lowercase hex form of the digest
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// CompressionResult is the outcome of running the compression engine on one file.
// It is built once by NewCompressionResult and never mutated afterwards.
type CompressionResult struct {
	FileName      string
	Payload       []byte
	Algorithm     Algorithm
	OriginalSize  uint64
	OptimizedSize uint64
	SavingRatio   float64
	OriginalHash  Digest
	OptimizedHash Digest
	// Optimized is false when Payload is the original input
	Optimized bool
}

// NewCompressionResult builds a result for the given input and final payload
func NewCompressionResult(fileName string, original, payload []byte, algorithm Algorithm, optimized bool) *CompressionResult {
	result := &CompressionResult{
		FileName:      fileName,
		Payload:       payload,
		Algorithm:     algorithm,
		OriginalSize:  uint64(len(original)),
		OptimizedSize: uint64(len(payload)),
		OriginalHash:  DigestOf(original),
		OptimizedHash: DigestOf(payload),
		Optimized:     optimized,
	}
	result.SavingRatio = SavingRatio(result.OriginalSize, result.OptimizedSize)
	return result
}

// SavingRatio returns 1 - optimized/original when the file shrank, otherwise 0
func SavingRatio(originalSize, optimizedSize uint64) float64 {
	if originalSize == 0 || optimizedSize >= originalSize {
		return 0
	}
	return 1 - float64(optimizedSize)/float64(originalSize)
}

// SavedBytes returns how many bytes the optimization removed
func (cr *CompressionResult) SavedBytes() uint64 {
	if cr.OptimizedSize >= cr.OriginalSize {
		return 0
	}
	return cr.OriginalSize - cr.OptimizedSize
}

// IsEffective reports whether the stored payload is smaller than the input
func (cr *CompressionResult) IsEffective() bool {
	return cr.Optimized && cr.OptimizedSize < cr.OriginalSize
}

// StorageMetadata returns the metadata map stored alongside the optimized blob
func (cr *CompressionResult) StorageMetadata() map[string]string {
	return map[string]string{
		"compression":    cr.Algorithm.String(),
		"original_size":  formatUint(cr.OriginalSize),
		"optimized_size": formatUint(cr.OptimizedSize),
		"original_hash":  cr.OriginalHash.String(),
		"optimized_hash": cr.OptimizedHash.String(),
	}
}

// RecordMetadata returns the metadata map stored alongside the metadata record
func (cr *CompressionResult) RecordMetadata() map[string]string {
	return map[string]string{
		"compression":    cr.Algorithm.String(),
		"original_size":  formatUint(cr.OriginalSize),
		"optimized_size": formatUint(cr.OptimizedSize),
		"saving_ratio":   FormatSavingRatio(cr.SavingRatio),
	}
}
