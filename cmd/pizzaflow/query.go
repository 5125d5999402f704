package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"pizzaflow/internal/availability"
	"pizzaflow/internal/database"
	"pizzaflow/internal/load"
	"pizzaflow/internal/model"
	"pizzaflow/internal/overbooking"
	"pizzaflow/internal/slots"
	"pizzaflow/internal/timeutil"
)

var slotsCmd = &cobra.Command{
	Use:   "slots",
	Short: "Print the slot grid of a date",
	RunE:  runSlots,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print date availability for a range",
	RunE:  runStatus,
}

func init() {
	slotsCmd.Flags().String("date", "", "date (YYYY-MM-DD, default today)")
	slotsCmd.Flags().String("type", string(model.OrderTakeaway), "order type: takeaway, delivery or table")
	slotsCmd.Flags().Int("pax", 0, "party size for table orders")
	slotsCmd.Flags().Int("items", 0, "kitchen items in the cart")
	slotsCmd.Flags().Bool("staff", false, "evaluate with staff overbooking rules")

	statusCmd.Flags().String("from", "", "first date (YYYY-MM-DD, default today)")
	statusCmd.Flags().Int("days", 14, "number of days")
	statusCmd.Flags().String("type", string(model.OrderTable), "order type: takeaway, delivery or table")
}

func runSlots(cmd *cobra.Command, _ []string) error {
	env, err := openOffline()
	if err != nil {
		return err
	}
	defer env.db.Close()

	now := env.clock()
	date, _ := cmd.Flags().GetString("date")
	if date == "" {
		date = timeutil.Today(now)
	}
	orderType, _ := cmd.Flags().GetString("type")
	pax, _ := cmd.Flags().GetInt("pax")
	items, _ := cmd.Flags().GetInt("items")
	staff, _ := cmd.Flags().GetBool("staff")

	orders, err := env.db.ListOrders(cmd.Context(), database.OrderFilter{})
	if err != nil {
		return err
	}
	floor, err := env.db.ListTables(cmd.Context())
	if err != nil {
		return err
	}
	if len(floor) == 0 {
		floor = env.calendar.Floor()
	}

	cal := env.calendar.ToCalendar()
	q := availability.SlotQuery{Date: date, OrderType: model.OrderType(orderType), Pax: pax, Incoming: items, Now: now}
	if staff {
		q.Flow = overbooking.FlowStaff
	}

	out := cmd.OutOrStdout()
	ds := availability.CheckDateStatus(cal, date, q.OrderType, timeutil.Today(now))
	if !ds.Available {
		fmt.Fprintf(out, "%s %s: %s\n", date, orderType, ds.Reason.Message())
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tAVAILABLE\tLOAD\tCAPACITY\tTABLES\tREASON")
	for _, st := range availability.SlotGrid(cal, q, orders, floor) {
		tables := ""
		if q.OrderType == model.OrderTable {
			tables = strconv.Itoa(len(st.Tables))
		}
		fmt.Fprintf(tw, "%s\t%t\t%d\t%d\t%s\t%s\n", st.Slot, st.Available, st.Load, st.Capacity, tables, st.Reason.Message())
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	lunch, dinner := slots.SplitByShift(slots.Generate(cal, date))
	asOf := load.AsOf(timeutil.Today(now))
	_, lunchLoad := load.ShiftLoad(orders, date, lunch, asOf)
	_, dinnerLoad := load.ShiftLoad(orders, date, dinner, asOf)
	fmt.Fprintf(out, "\nkitchen items: lunch %d, dinner %d\n", lunchLoad, dinnerLoad)
	return nil
}

func runStatus(cmd *cobra.Command, _ []string) error {
	env, err := openOffline()
	if err != nil {
		return err
	}
	defer env.db.Close()

	today := timeutil.Today(env.clock())
	from, _ := cmd.Flags().GetString("from")
	if from == "" {
		from = today
	}
	days, _ := cmd.Flags().GetInt("days")
	if days < 1 {
		days = 1
	}
	orderType, _ := cmd.Flags().GetString("type")

	statuses, err := availability.DateRange(env.calendar.ToCalendar(), from, timeutil.AddDays(from, days-1), model.OrderType(orderType), today)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tDAY\tAVAILABLE\tREASON")
	for _, d := range statuses {
		fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", d.Date, timeutil.DayName(d.Date), d.Available, d.Reason.Message())
	}
	return tw.Flush()
}
