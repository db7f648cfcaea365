package models

import (
	"encoding/json"
	"time"
)

// RuleConfigKind identifies which rule a configuration document feeds.
type RuleConfigKind string

const (
	RuleConfigWhitelist    RuleConfigKind = "whitelist"
	RuleConfigBlacklist    RuleConfigKind = "blacklist"
	RuleConfigSegmentation RuleConfigKind = "segmentation"
)

// RuleConfig is a stored rule configuration document. One enabled document
// per kind is consulted when the pipeline assembles its rule set.
type RuleConfig struct {
	ID        string          `json:"id" db:"id"`
	Kind      RuleConfigKind  `json:"kind" db:"kind"`
	Document  json.RawMessage `json:"document" db:"document"`
	Enabled   bool            `json:"enabled" db:"enabled"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// CreateRuleConfigRequest is the request to store a rule configuration.
type CreateRuleConfigRequest struct {
	Kind     RuleConfigKind  `json:"kind" validate:"required,oneof=whitelist blacklist segmentation"`
	Document json.RawMessage `json:"document" validate:"required"`
	Enabled  bool            `json:"enabled"`
}

// UpdateRuleConfigRequest is the request to replace a rule configuration
// document.
type UpdateRuleConfigRequest struct {
	Document json.RawMessage `json:"document" validate:"required"`
	Enabled  bool            `json:"enabled"`
}
