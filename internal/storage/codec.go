package storage

import (
	"encoding/json"
	"errors"

	"demiurge/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeRun(r model.Run) ([]byte, error) {
	return json.Marshal(r)
}

func DecodeRun(data []byte) (model.Run, error) {
	var run model.Run
	if err := json.Unmarshal(data, &run); err != nil {
		return model.Run{}, err
	}
	if err := checkVersion(run.VersionedRecord); err != nil {
		return model.Run{}, err
	}
	return run, nil
}

func EncodeSnapshot(s model.PopSnapshot) ([]byte, error) {
	return json.Marshal(s)
}

func DecodeSnapshot(data []byte) (model.PopSnapshot, error) {
	var snap model.PopSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return model.PopSnapshot{}, err
	}
	if err := checkVersion(snap.VersionedRecord); err != nil {
		return model.PopSnapshot{}, err
	}
	return snap, nil
}

func EncodeTraitSeries(series []model.TraitPoint) ([]byte, error) {
	return json.Marshal(series)
}

func DecodeTraitSeries(data []byte) ([]model.TraitPoint, error) {
	var series []model.TraitPoint
	if err := json.Unmarshal(data, &series); err != nil {
		return nil, err
	}
	return series, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
