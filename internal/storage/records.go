package storage

import (
	"time"

	"github.com/google/uuid"
)

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// NewRecordVersion stamps a record with the current versions.
func NewRecordVersion() VersionedRecord {
	return VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion}
}

// NewRunID returns a fresh identifier for a run archive.
func NewRunID() string {
	return uuid.New().String()
}

// RunRecord captures the outcome of one run.
type RunRecord struct {
	VersionedRecord
	ID          string    `json:"id"`
	Config      string    `json:"config,omitempty"`
	Seed        int64     `json:"seed"`
	Updates     uint64    `json:"updates"`
	Populations []string  `json:"populations,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	Errors      []string  `json:"errors,omitempty"`
	Warnings    []string  `json:"warnings,omitempty"`
}

// SnapshotRecord captures the live organisms of one population at a given
// update.
type SnapshotRecord struct {
	VersionedRecord
	ID         string           `json:"id"`
	RunID      string           `json:"run_id"`
	Update     uint64           `json:"update"`
	Population string           `json:"population"`
	Organisms  []OrganismRecord `json:"organisms"`
}

type OrganismRecord struct {
	Index  int                `json:"index"`
	Genome string             `json:"genome"`
	Traits map[string]float64 `json:"traits,omitempty"`
}

// SummaryRow is one trait summary value sampled at a given update.
type SummaryRow struct {
	VersionedRecord
	Update uint64 `json:"update"`
	Trait  string `json:"trait"`
	Filter string `json:"filter"`
	Value  string `json:"value"`
}
