package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Run identifies one simulation run and its reproducibility inputs.
type Run struct {
	VersionedRecord
	ID         string `json:"id"`
	Label      string `json:"label,omitempty"`
	Seed       int64  `json:"seed"`
	Updates    int    `json:"updates"`
	StartedAt  string `json:"started_at,omitempty"`
	FinishedAt string `json:"finished_at,omitempty"`
}

// OrgRecord is one occupied slot of a population snapshot: the slot
// index, the organism type that produced the genome, and the genome in
// its string form.
type OrgRecord struct {
	Slot   int    `json:"slot"`
	Type   string `json:"type"`
	Genome string `json:"genome"`
}

// PopSnapshot is the persistent image of one population at one update.
// Empty slots are omitted; Size preserves the slot count so a restore
// reproduces the exact spatial arrangement.
type PopSnapshot struct {
	VersionedRecord
	RunID  string      `json:"run_id"`
	Update int         `json:"update"`
	Name   string      `json:"name"`
	Size   int         `json:"size"`
	Orgs   []OrgRecord `json:"orgs"`
}

// TraitPoint is one per-update sample of a trait statistics series.
type TraitPoint struct {
	Update  int     `json:"update"`
	NumOrgs int     `json:"num_orgs"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Mean    float64 `json:"mean"`
	StdDev  float64 `json:"std_dev"`
}
