package models

type LinkRequest struct {
	AliasID   string `json:"alias_id" validate:"required,max=128"`
	PrimaryID string `json:"primary_id" validate:"required,max=128"`
}

type UnlinkRequest struct {
	AliasID string `json:"alias_id" validate:"required,max=128"`
}

// StatsQuery carries the filter parameters shared by every statistics endpoint.
type StatsQuery struct {
	ExcludeAbandons bool   `json:"exclude_abandons"`
	Map             string `json:"map" validate:"max=128"`
	ScoreType       string `json:"score_type" validate:"omitempty,oneof=game personal"`
}
