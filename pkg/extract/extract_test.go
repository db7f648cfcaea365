package extract

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/errors"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clients.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCSVSource_LoadClients(t *testing.T) {
	ctx := context.Background()

	t.Run("loads clients with required columns", func(t *testing.T) {
		path := writeCSV(t, "client_id,client_name,region,segment,parent_org,advisor_email\n"+
			"C1,Acme Corp,East,Retail,Acme Global,rep@example.com\n"+
			"C2,Globex,West,Enterprise,,other@example.com\n")

		clients, err := NewCSVSource(testLogger(), path).LoadClients(ctx)

		require.NoError(t, err)
		require.Len(t, clients, 2)
		assert.Equal(t, "C1", clients[0].ID)
		assert.Equal(t, "Acme Corp", clients[0].Name)
		assert.Equal(t, "East", clients[0].Region)
		assert.True(t, clients[0].IsActive)
		assert.Empty(t, clients[1].ParentOrg)
	})

	t.Run("missing required columns is a validation error", func(t *testing.T) {
		path := writeCSV(t, "client_id,client_name\nC1,Acme Corp\n")

		_, err := NewCSVSource(testLogger(), path).LoadClients(ctx)

		require.Error(t, err)
		assert.True(t, errors.IsValidationError(err))
		assert.Contains(t, err.Error(), "region")
	})

	t.Run("extra columns become attributes", func(t *testing.T) {
		path := writeCSV(t, "client_id,client_name,region,segment,parent_org,advisor_email,aum\n"+
			"C1,Acme Corp,East,Retail,,rep@example.com,1500000\n")

		clients, err := NewCSVSource(testLogger(), path).LoadClients(ctx)

		require.NoError(t, err)
		require.Len(t, clients, 1)
		assert.Equal(t, 1500000.0, clients[0].Attributes.Data["aum"])
	})

	t.Run("is_active column is honored", func(t *testing.T) {
		path := writeCSV(t, "client_id,client_name,region,segment,parent_org,advisor_email,is_active\n"+
			"C1,Acme Corp,East,Retail,,rep@example.com,false\n")

		clients, err := NewCSVSource(testLogger(), path).LoadClients(ctx)

		require.NoError(t, err)
		assert.False(t, clients[0].IsActive)
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := NewCSVSource(testLogger(), "/nonexistent/clients.csv").LoadClients(ctx)
		assert.Error(t, err)
	})

	t.Run("empty file is a validation error", func(t *testing.T) {
		path := writeCSV(t, "")
		_, err := NewCSVSource(testLogger(), path).LoadClients(ctx)
		assert.True(t, errors.IsValidationError(err))
	})
}
