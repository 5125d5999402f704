package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pizzaflow/internal/database"
	"pizzaflow/internal/report"
	"pizzaflow/internal/timeutil"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the agenda of a date to an Excel file",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().String("date", "", "date (YYYY-MM-DD, default today)")
	exportCmd.Flags().String("shift", "", "lunch or dinner (default whole day)")
	exportCmd.Flags().StringP("out", "o", "", "output file (default agenda_<date>.xlsx)")
}

func runExport(cmd *cobra.Command, _ []string) error {
	env, err := openOffline()
	if err != nil {
		return err
	}
	defer env.db.Close()

	today := timeutil.Today(env.clock())
	date, _ := cmd.Flags().GetString("date")
	if date == "" {
		date = today
	}
	shift, _ := cmd.Flags().GetString("shift")
	if shift != "" && shift != string(timeutil.Lunch) && shift != string(timeutil.Dinner) {
		return fmt.Errorf("shift must be lunch or dinner, got %q", shift)
	}
	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		out = fmt.Sprintf("agenda_%s.xlsx", date)
	}

	filter := database.OrderFilter{Date: date}
	if date == today {
		// undated orders belong to today
		filter.Date = ""
	}
	orders, err := env.db.ListOrders(cmd.Context(), filter)
	if err != nil {
		return err
	}
	floor, err := env.db.ListTables(cmd.Context())
	if err != nil {
		return err
	}
	audit, err := env.db.ListAudit(cmd.Context(), date)
	if err != nil {
		return err
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()

	err = report.WriteAgenda(f, report.Agenda{
		Date:     date,
		Today:    today,
		Shift:    timeutil.Shift(shift),
		Calendar: env.calendar.ToCalendar(),
		Orders:   orders,
		Tables:   floor,
		Audit:    audit,
	})
	if err != nil {
		return fmt.Errorf("write agenda: %w", err)
	}

	logger.Info().Str("file", out).Int("orders", len(orders)).Msg("agenda exported")
	return nil
}
