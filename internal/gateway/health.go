package gateway

import "net/http"

// ReadinessChecker reports whether the gateway is ready to serve traffic.
// internal/app.Health is the reference implementation.
type ReadinessChecker interface {
	IsReady() bool
}

// livenessHandler always returns 200: the process is up and able to
// respond at all, independent of upstream readiness.
func livenessHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// readinessHandler returns 200 only once checker reports ready, so a load
// balancer holds off routing traffic during startup.
func readinessHandler(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if !checker.IsReady() {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
