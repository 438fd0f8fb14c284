package metrics

import (
	"time"
)

// RecordRemoteRequest records a finished remote call.
// count is ignored unless outcome is "success".
func RecordRemoteRequest(endpoint, outcome string, duration time.Duration, count int) {
	RemoteRequestDuration.WithLabelValues(endpoint, outcome).Observe(duration.Seconds())
	if outcome == "success" && count > 0 {
		ArticlesFetchedTotal.WithLabelValues(endpoint).Add(float64(count))
	}
}

// RecordSyncOperation counts a coordinator load or search by its result.
func RecordSyncOperation(op, result string) {
	SyncOperationsTotal.WithLabelValues(op, result).Inc()
}

// RecordStorageError counts a storage failure that was absorbed by the cache.
func RecordStorageError(op string) {
	StorageErrorsTotal.WithLabelValues(op).Inc()
}

// RecordStoreOperation records how long a store call took.
func RecordStoreOperation(op string, duration time.Duration) {
	StoreOperationDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordArticlesInserted adds newly written rows.
func RecordArticlesInserted(n int) {
	if n > 0 {
		ArticlesInserted.Add(float64(n))
	}
}

// UpdateArticlesCached updates the stored article gauge.
func UpdateArticlesCached(count int64) {
	ArticlesCached.Set(float64(count))
}

// SetConnected mirrors the connectivity signal.
func SetConnected(up bool) {
	Connected.Set(boolToFloat(up))
}

// SetCircuitOpen mirrors a circuit breaker state.
func SetCircuitOpen(circuit string, open bool) {
	CircuitBreakerOpen.WithLabelValues(circuit).Set(boolToFloat(open))
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
