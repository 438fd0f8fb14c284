// Package tracing wires OpenTelemetry into the local API and the remote sources.
//
// Every HTTP request of the local API gets a server span, and every remote
// call and coordinator operation opens a child span:
//
//	ctx, span := tracing.Start(ctx, "newsapi.TopHeadlines")
//	defer span.End()
//
// Spans are no-ops until Setup installs an SDK provider.
package tracing
