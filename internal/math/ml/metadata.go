package ml

import "github.com/drakos74/free-shape/internal/model"

// Metadata describes a trained clustering model.
type Metadata struct {
	Samples    int       `json:"samples"`
	Clusters   []Cluster `json:"clusters"`
	Iterations int       `json:"iterations"`
	Inertia    float64   `json:"inertia"`
}

// Cluster describes one cluster of a trained model.
type Cluster struct {
	Size     int         `json:"size"`
	Label    model.Label `json:"label"`
	Centroid []float64   `json:"centroid"`
}
