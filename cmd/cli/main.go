package main

import (
	"context"
	"fmt"
	"os"

	"github.com/patternmine/spade/cmd/cli/cmd"
	"github.com/patternmine/spade/pkg/telemetry"
)

func main() {
	ctx := context.Background()
	shutdown, err := telemetry.Init(ctx)
	if err != nil {
		// Telemetry is best-effort; a misconfigured collector should not
		// block mining.
		fmt.Fprintf(os.Stderr, "telemetry disabled: %v\n", err)
	}
	defer shutdown(ctx)

	cmd.Execute()
}
