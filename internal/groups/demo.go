package groups

import (
	"context"
	"errors"

	"github.com/angelmondragon/importgroups-backend/pkg/logger"
)

// DemoTickJobName identifies the demo tick in the scheduler and its metrics.
const DemoTickJobName = "demo-tick"

// DemoTickJob drives RunDemoTick from the scheduler.
type DemoTickJob struct {
	engine *Engine
	logg   *logger.Logger
}

func NewDemoTickJob(engine *Engine, logg *logger.Logger) (*DemoTickJob, error) {
	if engine == nil {
		return nil, errors.New("engine required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	return &DemoTickJob{engine: engine, logg: logg}, nil
}

func (j *DemoTickJob) Name() string { return DemoTickJobName }

func (j *DemoTickJob) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	result := j.engine.RunDemoTick(ctx)
	fields := map[string]any{"created": result.Created != nil}
	if result.Filled != nil {
		fields["group_id"] = result.Filled.ID.String()
		fields["role"] = result.FilledRole.String()
	}
	j.logg.Debug(j.logg.WithFields(ctx, fields), "demo tick")
	return nil
}
