package storage

import (
	"encoding/json"
	"errors"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeRun(run RunRecord) ([]byte, error) {
	return json.Marshal(run)
}

func DecodeRun(data []byte) (RunRecord, error) {
	var run RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return RunRecord{}, err
	}
	if err := checkVersion(run.VersionedRecord); err != nil {
		return RunRecord{}, err
	}
	return run, nil
}

func EncodeSnapshot(snapshot SnapshotRecord) ([]byte, error) {
	return json.Marshal(snapshot)
}

func DecodeSnapshot(data []byte) (SnapshotRecord, error) {
	var snapshot SnapshotRecord
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return SnapshotRecord{}, err
	}
	if err := checkVersion(snapshot.VersionedRecord); err != nil {
		return SnapshotRecord{}, err
	}
	return snapshot, nil
}

func EncodeSummaries(rows []SummaryRow) ([]byte, error) {
	return json.Marshal(rows)
}

func DecodeSummaries(data []byte) ([]SummaryRow, error) {
	var rows []SummaryRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, err
	}
	for _, row := range rows {
		if err := checkVersion(row.VersionedRecord); err != nil {
			return nil, err
		}
	}
	return rows, nil
}

func checkVersion(v VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
