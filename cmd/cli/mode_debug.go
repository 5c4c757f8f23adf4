//go:build debug

package main

import (
	"net/http"
	_ "net/http/pprof" //nolint:gosec //debug builds only

	"github.com/labi-le/clickerwatch/internal/config"
)

func applyTagsOverrides(cfg *config.Config) {
	cfg.Verbose = true

	go func() {
		addr := "127.0.0.1:6060"
		//nolint:gosec //debug builds only
		if err := http.ListenAndServe(addr, nil); err != nil {
			panic(err)
		}
	}()
}
