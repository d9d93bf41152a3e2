// Package encoding serializes the agreement metadata record
package encoding

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protowire"

	"agreements/internal/domain/entities"
)

// Field numbers of the metadata record message
const (
	fieldAgreementID protowire.Number = 1
	fieldUserID      protowire.Number = 2
	fieldDisk        protowire.Number = 3
	fieldFileName    protowire.Number = 4
	fieldContentType protowire.Number = 5
	fieldFileSize    protowire.Number = 6
	fieldCreatedAt   protowire.Number = 7
)

// AgreementCodec encodes AgreementMetadata in the protobuf wire format.
// Empty strings and a zero size are omitted, as proto3 does for defaults.
type AgreementCodec struct{}

// NewAgreementCodec creates a codec
func NewAgreementCodec() *AgreementCodec {
	return &AgreementCodec{}
}

// Marshal encodes m
func (c *AgreementCodec) Marshal(m entities.AgreementMetadata) ([]byte, error) {
	if m.FileSize < 0 {
		return nil, fmt.Errorf("negative file size %d", m.FileSize)
	}

	var b []byte
	b = appendString(b, fieldAgreementID, m.AgreementID)
	b = appendString(b, fieldUserID, m.UserID)
	b = appendString(b, fieldDisk, m.Disk)
	b = appendString(b, fieldFileName, m.FileName)
	b = appendString(b, fieldContentType, m.ContentType)
	if m.FileSize != 0 {
		b = protowire.AppendTag(b, fieldFileSize, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(m.FileSize))
	}
	if !m.CreatedAt.IsZero() {
		b = appendString(b, fieldCreatedAt, m.CreatedAt.UTC().Format(time.RFC3339))
	}
	return b, nil
}

// Unmarshal decodes a record. Unknown fields are skipped.
func (c *AgreementCodec) Unmarshal(data []byte) (entities.AgreementMetadata, error) {
	var m entities.AgreementMetadata

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return m, fmt.Errorf("%w: tag: %v", entities.ErrDecode, protowire.ParseError(n))
		}
		data = data[n:]

		switch {
		case num == fieldFileSize && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return m, fmt.Errorf("%w: file_size: %v", entities.ErrDecode, protowire.ParseError(n))
			}
			m.FileSize = int64(v)
			data = data[n:]

		case num >= fieldAgreementID && num <= fieldCreatedAt && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return m, fmt.Errorf("%w: field %d: %v", entities.ErrDecode, num, protowire.ParseError(n))
			}
			data = data[n:]
			if err := setString(&m, num, v); err != nil {
				return m, err
			}

		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return m, fmt.Errorf("%w: field %d: %v", entities.ErrDecode, num, protowire.ParseError(n))
			}
			data = data[n:]
		}
	}
	return m, nil
}

func setString(m *entities.AgreementMetadata, num protowire.Number, v string) error {
	switch num {
	case fieldAgreementID:
		m.AgreementID = v
	case fieldUserID:
		m.UserID = v
	case fieldDisk:
		m.Disk = v
	case fieldFileName:
		m.FileName = v
	case fieldContentType:
		m.ContentType = v
	case fieldCreatedAt:
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return fmt.Errorf("%w: created_at: %v", entities.ErrDecode, err)
		}
		m.CreatedAt = t
	}
	return nil
}

func appendString(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}
