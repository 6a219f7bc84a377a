package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// RunRecord summarizes one completed evolutionary run.
type RunRecord struct {
	VersionedRecord
	ID             string  `json:"id"`
	Objective      string  `json:"objective"`
	PopulationSize int     `json:"population_size"`
	Generations    int     `json:"generations"`
	Seed           int64   `json:"seed"`
	BestScore      float64 `json:"best_score"`
	BestGenomeID   string  `json:"best_genome_id"`
	FinalThreshold float64 `json:"final_threshold"`
	FinalSpecies   int     `json:"final_species"`
}

// SpeciesMetrics is the persisted per-species snapshot for one
// generation.
type SpeciesMetrics struct {
	Key        string  `json:"key"`
	LeaderID   string  `json:"leader_id"`
	Size       int     `json:"size"`
	BestScore  float64 `json:"best_score"`
	Share      float64 `json:"share"`
	Offspring  int     `json:"offspring"`
	Stagnation int     `json:"stagnation"`
	State      string  `json:"state"`
}

// SpeciesGeneration records the species roster of one generation along
// with the diff against the previous one.
type SpeciesGeneration struct {
	Generation     int              `json:"generation"`
	Species        []SpeciesMetrics `json:"species"`
	NewSpecies     []string         `json:"new_species,omitempty"`
	ExtinctSpecies []string         `json:"extinct_species,omitempty"`
}

// GenerationDiagnostics aggregates scoring and speciation health for
// one generation.
type GenerationDiagnostics struct {
	Generation         int     `json:"generation"`
	BestScore          float64 `json:"best_score"`
	MeanScore          float64 `json:"mean_score"`
	WorstScore         float64 `json:"worst_score"`
	SpeciesCount       int     `json:"species_count"`
	CreatedSpecies     int     `json:"created_species"`
	RemovedSpecies     int     `json:"removed_species"`
	Threshold          float64 `json:"threshold"`
	TotalShare         float64 `json:"total_share"`
	EvenAllocation     bool    `json:"even_allocation"`
	MeanSpeciesSize    float64 `json:"mean_species_size"`
	LargestSpeciesSize int     `json:"largest_species_size"`
}
