package instance

import "os"

// GetID identifies this worker process in logs. Deployments set WORKER_ID
// per replica; local runs fall back to a fixed name.
func GetID() string {
	id := os.Getenv("WORKER_ID")
	if id == "" {
		return "worker-0"
	}
	return id
}
