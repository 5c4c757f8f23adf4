//go:build !debug

package main

import "github.com/labi-le/clickerwatch/internal/config"

func applyTagsOverrides(*config.Config) {}
