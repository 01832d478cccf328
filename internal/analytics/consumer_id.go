// Package analytics provides tour view event capture and processing.
package analytics

import (
	"fmt"
	"os"
	"time"
)

// NewConsumerID builds a consumer name for the view-event consumer
// group. Host and pid identify the process in XINFO output; the nano
// suffix keeps restarts from reclaiming a dead consumer's pending
// entries by accident.
func NewConsumerID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "worker"
	}
	return fmt.Sprintf("%s-%d-%d", host, os.Getpid(), time.Now().UnixNano())
}
