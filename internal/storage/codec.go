package storage

import (
	"encoding/json"
	"errors"

	"synaptrace/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeTrace(record model.TraceRecord) ([]byte, error) {
	return json.Marshal(record)
}

func DecodeTrace(data []byte) (model.TraceRecord, error) {
	var record model.TraceRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return model.TraceRecord{}, err
	}
	if err := checkVersion(record.VersionedRecord); err != nil {
		return model.TraceRecord{}, err
	}
	return record, nil
}

func EncodeSummary(record model.TraceSummaryRecord) ([]byte, error) {
	return json.Marshal(record)
}

func DecodeSummary(data []byte) (model.TraceSummaryRecord, error) {
	var record model.TraceSummaryRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return model.TraceSummaryRecord{}, err
	}
	if err := checkVersion(record.VersionedRecord); err != nil {
		return model.TraceSummaryRecord{}, err
	}
	return record, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
