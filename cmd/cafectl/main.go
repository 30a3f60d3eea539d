package main

import (
	"fmt"
	"os"

	"cafedesk/internal/config"
	applog "cafedesk/internal/log"
)

func main() {
	cfg := config.Load()
	// Log lines would interleave with command output; keep them in LOG_FILE.
	if cfg.LogFile != "" {
		if f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644); err == nil {
			defer f.Close()
			applog.Setup(f, cfg.LogLevel)
		}
	} else {
		applog.Setup(os.Stderr, "error")
	}

	a, err := openApp(cfg, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := run(a, os.Args[1:]...); err != nil {
		a.Close()
		os.Exit(1)
	}
}
