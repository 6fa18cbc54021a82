package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/ytrec/internal/shared"
	"github.com/desertthunder/ytrec/internal/ui"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the example configuration to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	if err := shared.CreateConfigFile(r.configPath); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
	}

	r.writePlain("%s Config written to %s\n\n", ui.Styles.OK(ui.MarkOK), r.configPath)
	r.writePlain("Next steps:\n")
	r.writePlain("  1. Add your Google OAuth client_id and client_secret (or an api_key)\n")
	r.writePlain("  2. Add a Gemini api_key or export GEMINI_API_KEY\n")
	r.writePlain("  3. Run: ytrec auth login\n")
	return nil
}
