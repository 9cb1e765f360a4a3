package domain

import "time"

// Studio is a user-owned model configuration that parameterizes shoots.
// Ownership is transitive: prediction -> studio -> user.
type Studio struct {
	ID           string
	UserID       string
	Name         string
	Type         string
	ModelUser    string
	ModelVersion string
	LoraWeights  string
	HairStyle    string
	HeightCM     int
	ExtraInfo    string
	Images       []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
