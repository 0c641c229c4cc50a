// Package operations orchestrates analysis runs as a fixed pipeline of
// steps: generate, aggregate, export, archive.
//
// A Runner executes the steps sequentially with per-step timeouts and
// keeps per-run state (RunState) plus per-step state (StepState). Every
// status change flows through the StatusBroadcaster, which maintains a
// snapshot per run and publishes it to an EventSink (the WebSocket hub)
// as run:status, run:progress, and run:complete events.
//
// Steps communicate through the run state context: the generate step
// stores the observation dataset, the aggregate step reads it and stores
// the analysis results, and the export and archive steps consume both.
//
// Usage:
//
//	broadcaster := operations.NewStatusBroadcaster(hub, logger)
//	steps := operations.NewPipelineSteps(paths, store, logger, &operations.StepOptions{
//		Broadcaster: broadcaster,
//		Metrics:     metrics,
//	})
//	runner, err := operations.NewRunner(steps, &operations.RunnerOptions{
//		Broadcaster: broadcaster,
//		Metrics:     metrics,
//		Logger:      logger,
//	})
//	resp, err := runner.Run(ctx, operations.RunRequest{
//		Seed:          42,
//		WindowDays:    365,
//		ReferenceDate: refDate,
//	})
package operations
