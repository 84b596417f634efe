// Package tracing provides OpenTelemetry tracing for the publish pipeline.
//
// Every run is one trace: the publish service opens a root span and child spans
// for scrape, translate, archive.save and feed.write. The trace id is attached to
// the run's log records so a failed run can be followed across components.
//
//	shutdown := tracing.Setup()
//	defer func() { _ = shutdown(context.Background()) }()
//
//	ctx, span := tracing.GetTracer().Start(ctx, "scrape")
//	defer span.End()
package tracing
