package main

import (
	"log/slog"

	"slate/internal/config"
	"slate/internal/jobs"
	"slate/internal/stage"
	"slate/internal/stages/extraction"
	"slate/internal/stages/rendering"
	"slate/internal/stages/scripting"
	"slate/internal/stages/validation"
)

func buildProcessors(cfg *config.Config, store *jobs.Store, logger *slog.Logger) []stage.Processor {
	return []stage.Processor{
		extraction.New(cfg, logger),
		validation.New(cfg, store, logger),
		scripting.New(cfg, store, logger),
		rendering.New(cfg, store, logger),
	}
}
