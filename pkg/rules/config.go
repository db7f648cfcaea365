package rules

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Ramsey-B/clover/pkg/models"
)

// LoadWhitelist reads a client_id -> territory_id map from a JSON file.
// A missing file is tolerated and yields an empty whitelist; a malformed
// file is an error.
func LoadWhitelist(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read whitelist %s: %w", path, err)
	}

	var entries map[string]string
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse whitelist %s: %w", path, err)
	}
	return entries, nil
}

// LoadBlacklist reads a client_id -> blocked territory list map from a JSON
// file. A missing file is tolerated and yields an empty blacklist.
func LoadBlacklist(path string) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return map[string][]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read blacklist %s: %w", path, err)
	}

	var entries map[string][]string
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse blacklist %s: %w", path, err)
	}
	return entries, nil
}

// LoadSegmentation reads tier configuration from a JSON file. A missing file
// yields a config with no tiers, which disables the segmentation rule.
func LoadSegmentation(path string) (SegmentationConfig, error) {
	var cfg SegmentationConfig

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read segmentation config %s: %w", path, err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse segmentation config %s: %w", path, err)
	}
	return cfg, nil
}

// FromConfigs builds rules from stored configuration documents. Disabled
// documents are skipped; unknown kinds are an error. The returned set does
// not include the default region rule; callers append fallback rules
// themselves.
func FromConfigs(configs []models.RuleConfig) ([]Rule, error) {
	set := make([]Rule, 0, len(configs))

	for _, cfg := range configs {
		if !cfg.Enabled {
			continue
		}

		switch cfg.Kind {
		case models.RuleConfigWhitelist:
			var entries map[string]string
			if err := json.Unmarshal(cfg.Document, &entries); err != nil {
				return nil, fmt.Errorf("invalid whitelist document %s: %w", cfg.ID, err)
			}
			set = append(set, NewWhitelistRule(entries))

		case models.RuleConfigBlacklist:
			var entries map[string][]string
			if err := json.Unmarshal(cfg.Document, &entries); err != nil {
				return nil, fmt.Errorf("invalid blacklist document %s: %w", cfg.ID, err)
			}
			set = append(set, NewBlacklistRule(entries))

		case models.RuleConfigSegmentation:
			var segCfg SegmentationConfig
			if err := json.Unmarshal(cfg.Document, &segCfg); err != nil {
				return nil, fmt.Errorf("invalid segmentation document %s: %w", cfg.ID, err)
			}
			set = append(set, NewSegmentationRule(segCfg))

		default:
			return nil, fmt.Errorf("unknown rule config kind '%s'", cfg.Kind)
		}
	}

	return set, nil
}
