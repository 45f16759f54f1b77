package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/reprotrack/iatfmon/internal/domain/protocol"
	"github.com/reprotrack/iatfmon/pkg/errors"
)

// NewCalendarCmd creates the calendar command.
func NewCalendarCmd() *cobra.Command {
	var (
		file     string
		fromFlag string
		toFlag   string
	)

	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "List projected milestones as calendar events",
		Long: `List every projected milestone as an all-day calendar event.

--from and --to are inclusive calendar dates; an omitted bound leaves that
side of the range open.`,
		Example: `  iatfmon calendar --from 2024-01-01 --to 2024-01-31 -o table`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			from, err := parseBound("from", fromFlag, cliCtx.Location)
			if err != nil {
				return err
			}
			to, err := parseBound("to", toFlag, cliCtx.Location)
			if err != nil {
				return err
			}
			src, err := cliCtx.Source(file)
			if err != nil {
				return err
			}

			view, err := cliCtx.Service(src).Calendar(cmd.Context(), from, to)
			if err != nil {
				return err
			}
			if err := writeTextfile(cliCtx); err != nil {
				return err
			}
			return PrintResult(cmd, calendarResult{view})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "protocol export (default: source.path)")
	cmd.Flags().StringVar(&fromFlag, "from", "", "first day of the range ("+protocol.DateLayout+")")
	cmd.Flags().StringVar(&toFlag, "to", "", "last day of the range ("+protocol.DateLayout+")")
	return cmd
}

// parseBound parses a calendar date flag.  Empty means unbounded.
func parseBound(flag, value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := protocol.ParseDate(value, loc)
	if err != nil {
		return time.Time{}, errors.Wrap(err, errors.CodeInvalidParam, "invalid --"+flag).WithDetail("value=" + value)
	}
	return t, nil
}
