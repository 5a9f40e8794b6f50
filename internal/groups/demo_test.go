package groups

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/importgroups-backend/pkg/logger"
)

func TestDemoTickJob(t *testing.T) {
	f := newFixture(t)
	job, err := NewDemoTickJob(f.engine, logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, "demo-tick", job.Name())

	f.random.floats = []float64{0.1}
	require.NoError(t, job.Run(context.Background()))
	assert.Len(t, f.engine.ListActive(), 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, job.Run(ctx), context.Canceled)
}

func TestNewDemoTickJobValidation(t *testing.T) {
	_, err := NewDemoTickJob(nil, logger.Nop())
	require.Error(t, err)
	f := newFixture(t)
	_, err = NewDemoTickJob(f.engine, nil)
	require.Error(t, err)
}
