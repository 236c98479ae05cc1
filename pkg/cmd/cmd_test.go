package cmd

import (
	"context"
	"log/slog"
	"testing"

	"github.com/dukex/voltgraph/pkg/models"
	"github.com/dukex/voltgraph/pkg/persistence/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePersistenceProvider(t *testing.T) {
	assert.Equal(t, "file", parsePersistenceProvider("./data"))
	assert.Equal(t, "file", parsePersistenceProvider("file:///tmp/data"))
	assert.Equal(t, "postgres", parsePersistenceProvider("postgres://u:p@localhost/db"))
	assert.Equal(t, "postgresql", parsePersistenceProvider("postgresql://localhost/db"))
	assert.Equal(t, "file", parsePersistenceProvider("mongodb://localhost"))
}

func TestNewPersistence_File(t *testing.T) {
	p, err := NewPersistence(context.Background(), slog.Default(), "file://"+t.TempDir())
	require.NoError(t, err)
	assert.IsType(t, &file.Persistence{}, p)
}

func TestNewEventBus(t *testing.T) {
	bus, err := NewEventBus("gochannel", "", slog.Default())
	require.NoError(t, err)
	assert.NotEmpty(t, bus.GenerateID())
	require.NoError(t, bus.Close())

	_, err = NewEventBus("rabbitmq", "", slog.Default())
	require.ErrorContains(t, err, "unsupported event bus provider")

	_, err = NewEventBus("kafka", "", slog.Default())
	require.Error(t, err)
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry(slog.Default())
	assert.Len(t, reg.Templates(), len(models.Kinds()))
}

func TestNewMirror_Disabled(t *testing.T) {
	mirror, err := NewMirror(context.Background(), slog.Default(), "")
	require.NoError(t, err)
	assert.Nil(t, mirror)
}

func TestNewEngineOptions(t *testing.T) {
	opts, shutdown, err := NewEngineOptions(context.Background(), slog.Default(), "", false)
	require.NoError(t, err)
	assert.Len(t, opts, 2)
	require.NoError(t, shutdown(context.Background()))
}
