package main

import (
	"testing"

	"github.com/spf13/cobra"
)

func TestLogOptions(t *testing.T) {
	logLevel, logFile, logJournal = "debug", "bucketsim.log", true
	t.Cleanup(func() { logLevel, logFile, logJournal = "info", "", false })

	tests := []struct {
		cmd   string
		quiet bool
	}{
		{"live", true},
		{"run", false},
		{"sweep", false},
	}
	for _, tt := range tests {
		t.Run(tt.cmd, func(t *testing.T) {
			opts := logOptions(&cobra.Command{Use: tt.cmd})
			if opts.Quiet != tt.quiet {
				t.Errorf("Quiet = %v, want %v", opts.Quiet, tt.quiet)
			}
			if opts.Level != "debug" || opts.File != "bucketsim.log" || !opts.Journal {
				t.Errorf("unexpected options %+v", opts)
			}
		})
	}
}
