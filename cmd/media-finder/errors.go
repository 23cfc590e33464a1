package main

import (
	"fmt"

	"github.com/callumgare/media-finder-cli/internal/resolver"
)

func formatStageFailure(prefix string, stage resolver.Stage, code, op string, err error) string {
	return fmt.Sprintf("%s %s FAILED: %s op=%s: %v", prefix, stage, code, op, err)
}
