// forecast-snapshot Lambda stores the current month's forecast snapshots per
// user and organization. Invoked through a function URL by an external scheduler.
package main

import (
	"context"
	"sync"

	"pestcrm_backend/internal/jobs"
	intlambda "pestcrm_backend/internal/lambda"

	"github.com/aws/aws-lambda-go/events"
	awslambda "github.com/aws/aws-lambda-go/lambda"
)

var (
	deps     *intlambda.Deps
	depsOnce sync.Once
	depsErr  error
)

func getDeps() (*intlambda.Deps, error) {
	depsOnce.Do(func() {
		deps, depsErr = intlambda.Init(context.Background())
	})
	return deps, depsErr
}

func handler(ctx context.Context, req events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error) {
	d, err := getDeps()
	if err != nil {
		return intlambda.Failure(err), nil
	}

	return intlambda.Invoke(ctx, req, d.Config.GetServiceRoleKey(), func(ctx context.Context) (any, error) {
		return d.Runner.RunForecastSnapshot(ctx, jobs.TriggerLambda)
	}), nil
}

func main() {
	awslambda.Start(handler)
}
