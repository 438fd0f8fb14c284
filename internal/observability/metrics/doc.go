// Package metrics holds the newsdesk Prometheus collectors, registered on the
// default registry through promauto and served at /metrics.
//
// Callers go through the Record*/Set*/Update* helpers rather than touching
// the collectors:
//
//	start := time.Now()
//	articles, err := client.TopHeadlines(ctx)
//	metrics.RecordRemoteRequest("top-headlines", entity.KindName(err), time.Since(start), len(articles))
package metrics
