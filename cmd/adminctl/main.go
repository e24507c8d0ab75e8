// Command adminctl is the operator tool for the back-office: it hashes
// passwords, creates the first admin accounts and applies migrations.
package main

import (
	"os"

	log "github.com/sirupsen/logrus"
)

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05"})

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
