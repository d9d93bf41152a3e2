package entities

import (
	"path"
	"strconv"
	"strings"
	"time"
)

// UploadFolder is the folder under a user's timestamp that holds uploaded files
const UploadFolder = "upload_pdf"

// MetadataObjectName is the object name of the serialized metadata record
const MetadataObjectName = "metadata.pb"

// AgreementMetadata is the fixed-schema record stored next to every uploaded file
type AgreementMetadata struct {
	AgreementID string
	UserID      string
	Disk        string
	FileName    string
	ContentType string
	FileSize    int64
	CreatedAt   time.Time
}

// StoredObject is an object read back from blob storage
type StoredObject struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
	Body         []byte
}

// AgreementLocation identifies where one upload is stored
type AgreementLocation struct {
	Disk      string
	UserID    string
	Timestamp string
}

// BasePath returns <disk>/<user>/<timestamp>/upload_pdf
func (l AgreementLocation) BasePath() string {
	return path.Join(l.Disk, l.UserID, l.Timestamp, UploadFolder)
}

// FileKey returns the object key of the uploaded file
func (l AgreementLocation) FileKey(fileName string) string {
	return path.Join(l.BasePath(), path.Base(fileName))
}

// MetadataKey returns the object key of the metadata record
func (l AgreementLocation) MetadataKey() string {
	return path.Join(l.BasePath(), MetadataObjectName)
}

// UserPrefix returns the listing prefix for all uploads of a user on a disk
func UserPrefix(disk, userID string) string {
	return strings.TrimSuffix(disk, "/") + "/" + userID + "/"
}

// TimestampLayout is the layout of the per-upload folder name
const TimestampLayout = "20060102_150405"

// FormatSavingRatio renders a saving ratio with four decimals, "0" for no saving
func FormatSavingRatio(ratio float64) string {
	if ratio <= 0 {
		return "0"
	}
	return strconv.FormatFloat(ratio, 'f', 4, 64)
}

func formatUint(v uint64) string {
	return strconv.FormatUint(v, 10)
}
