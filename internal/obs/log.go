package obs

import (
	"encoding/json"
	"log"
	"os"
	"sync"
)

var (
	loggerOnce sync.Once
	logger     *log.Logger
)

// Logger is the shared line writer behind both log streams: the request log
// emitted by the httpapi middleware and the audit events written on every
// ledger mutation. One line per call, JSON, no prefix.
func Logger() *log.Logger {
	loggerOnce.Do(func() {
		logger = log.New(os.Stdout, "", 0)
	})
	return logger
}

// LogRequest marshals one access-log entry (method, path, status,
// duration_ms, request_id) to a JSON line.
func LogRequest(entry map[string]any) {
	data, err := json.Marshal(entry)
	if err != nil {
		Logger().Println(`{"level":"error","msg":"request log marshal failed"}`)
		return
	}
	Logger().Println(string(data))
}
