package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reprotrack/iatfmon/internal/application/monitoring"
	"github.com/reprotrack/iatfmon/internal/domain/protocol"
	"github.com/reprotrack/iatfmon/pkg/errors"
)

// adHocProtocolID identifies the single record built from timeline flags.
const adHocProtocolID = "ad-hoc"

// staticSource serves a fixed record set.
type staticSource []protocol.Record

func (s staticSource) ListProtocols(ctx context.Context) ([]protocol.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeSourceUnavailable, "listing cancelled")
	}
	return append([]protocol.Record(nil), s...), nil
}

type timelineFlags struct {
	start, removal, name string
	protocolID, file     string
}

// timelineSource resolves the flags to a source and the protocol id to
// project from it.
func timelineSource(cliCtx *CLIContext, f timelineFlags) (monitoring.ProtocolSource, string, error) {
	switch {
	case f.start != "" && f.protocolID != "":
		return nil, "", errors.InvalidParam("--start and --protocol are mutually exclusive")
	case f.start != "":
		name := f.name
		if name == "" {
			name = "Protocolo"
		}
		return staticSource{{
			ID:                 adHocProtocolID,
			Name:               name,
			StartDate:          f.start,
			ImplantRemovalDate: f.removal,
		}}, adHocProtocolID, nil
	case f.protocolID != "":
		if f.removal != "" {
			return nil, "", errors.InvalidParam("--removal only applies to ad-hoc timelines")
		}
		src, err := cliCtx.Source(f.file)
		if err != nil {
			return nil, "", err
		}
		return src, f.protocolID, nil
	default:
		return nil, "", errors.InvalidParam("one of --start or --protocol is required")
	}
}

// NewTimelineCmd creates the timeline command.
func NewTimelineCmd() *cobra.Command {
	var f timelineFlags

	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "Project the milestones of one protocol",
		Long: `Project and classify the four milestones of one protocol.

Either describe an ad-hoc protocol with --start (and optionally --removal),
or pick a protocol from the export with --protocol.`,
		Example: `  iatfmon timeline --start 2024-01-01 --now 2024-01-08
  iatfmon timeline --start 2024-01-03 --removal 2024-01-12T08:00:00Z -o table
  iatfmon timeline --protocol p-17 --file protocols.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			source, id, err := timelineSource(cliCtx, f)
			if err != nil {
				return err
			}

			view, err := cliCtx.Service(source).Timeline(cmd.Context(), id, cliCtx.CurrentTime())
			if err != nil {
				return err
			}
			return PrintResult(cmd, timelineResult{view})
		},
	}

	cmd.Flags().StringVar(&f.start, "start", "", fmt.Sprintf("device placement date (%s or RFC 3339)", protocol.DateLayout))
	cmd.Flags().StringVar(&f.removal, "removal", "", "recorded implant removal instant")
	cmd.Flags().StringVar(&f.name, "name", "", "protocol name for ad-hoc output")
	cmd.Flags().StringVar(&f.protocolID, "protocol", "", "protocol id to look up in the export")
	cmd.Flags().StringVarP(&f.file, "file", "f", "", "protocol export (default: source.path)")
	return cmd
}
