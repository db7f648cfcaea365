// Package extract loads the raw client population that feeds a pipeline
// run.
package extract

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/errors"
	"github.com/Ramsey-B/clover/pkg/models"
)

// ClientSource supplies the raw client set for one pipeline run.
type ClientSource interface {
	LoadClients(ctx context.Context) ([]models.Client, error)
}

// CSVSource reads clients from a CSV file with a header row. Columns beyond
// the required set are kept as client attributes.
type CSVSource struct {
	logger ectologger.Logger
	path   string
}

// NewCSVSource creates a new CSVSource
func NewCSVSource(logger ectologger.Logger, path string) *CSVSource {
	return &CSVSource{logger: logger, path: path}
}

func (s *CSVSource) LoadClients(ctx context.Context) ([]models.Client, error) {
	file, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open client source %s: %w", s.path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return nil, errors.NewValidationError(s.path, "client source has no header row")
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}

	var missing []string
	for _, required := range models.RequiredClientColumns {
		if _, ok := columns[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, errors.NewMissingColumnsError(s.path, missing)
	}

	var clients []models.Client
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read client source %s: %w", s.path, err)
		}

		client := models.Client{
			ID:           field(row, columns, "client_id"),
			Name:         field(row, columns, "client_name"),
			Region:       field(row, columns, "region"),
			Segment:      field(row, columns, "segment"),
			ParentOrg:    field(row, columns, "parent_org"),
			AdvisorEmail: field(row, columns, "advisor_email"),
			IsActive:     true,
		}
		if v := field(row, columns, "is_active"); v != "" {
			if active, err := strconv.ParseBool(v); err == nil {
				client.IsActive = active
			}
		}

		extras := extraAttributes(row, header, columns)
		if len(extras) > 0 {
			client.Attributes = database.JSONB[map[string]any]{Data: extras}
		}

		clients = append(clients, client)
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"path":    s.path,
		"clients": len(clients),
	}).Info("loaded clients from csv")

	return clients, nil
}

// ClientLister is the repository surface the RepositorySource reads from.
type ClientLister interface {
	ListActive(ctx context.Context) ([]models.Client, error)
}

// RepositorySource loads the client population from the clients table, for
// runs fed by Kafka ingestion instead of a file drop.
type RepositorySource struct {
	lister ClientLister
}

// NewRepositorySource creates a new RepositorySource
func NewRepositorySource(lister ClientLister) *RepositorySource {
	return &RepositorySource{lister: lister}
}

func (s *RepositorySource) LoadClients(ctx context.Context) ([]models.Client, error) {
	return s.lister.ListActive(ctx)
}

func field(row []string, columns map[string]int, name string) string {
	idx, ok := columns[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

var knownColumns = map[string]bool{
	"client_id":     true,
	"client_name":   true,
	"region":        true,
	"segment":       true,
	"parent_org":    true,
	"advisor_email": true,
	"is_active":     true,
}

// extraAttributes collects non-standard columns so tier criteria can match
// on them.
func extraAttributes(row []string, header []string, columns map[string]int) map[string]any {
	var extras map[string]any
	for _, name := range header {
		trimmed := strings.TrimSpace(name)
		if knownColumns[trimmed] {
			continue
		}
		value := field(row, columns, trimmed)
		if value == "" {
			continue
		}
		if extras == nil {
			extras = make(map[string]any)
		}
		if n, err := strconv.ParseFloat(value, 64); err == nil {
			extras[trimmed] = n
		} else {
			extras[trimmed] = value
		}
	}
	return extras
}
