package server

import (
	"errors"
	"fmt"

	"github.com/ValentinKolb/davLS/lib/locksys"
	"github.com/ValentinKolb/davLS/rpc/common"
	"github.com/VictoriaMetrics/metrics"
)

// countResult records one processed lock operation and its outcome. The
// counters are exported in Prometheus format by the HTTP transport under
// GET /metrics.
func countResult(msgType common.MessageType, err error) {
	metrics.GetOrCreateCounter(
		fmt.Sprintf(`davls_lock_requests_total{op=%q}`, msgType.String()),
	).Inc()

	switch {
	case err == nil:
	case errors.Is(err, locksys.ErrTokenNotFound):
		metrics.GetOrCreateCounter(
			fmt.Sprintf(`davls_lock_token_not_found_total{op=%q}`, msgType.String()),
		).Inc()
	default:
		if _, ok := locksys.AsConflict(err); ok {
			metrics.GetOrCreateCounter(
				fmt.Sprintf(`davls_lock_conflicts_total{op=%q}`, msgType.String()),
			).Inc()
		} else {
			metrics.GetOrCreateCounter(
				fmt.Sprintf(`davls_lock_errors_total{op=%q}`, msgType.String()),
			).Inc()
		}
	}
}
