package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/warp/wochennachweis/holiday"
	"github.com/warp/wochennachweis/report"
)

func newHolidaysCmd(g *globalFlags) *cobra.Command {
	var (
		year   int
		region string
	)

	cmd := &cobra.Command{
		Use:   "holidays",
		Short: "Print the holidays of a year",
		RunE: func(cmd *cobra.Command, args []string) error {
			if year < report.MinYear || year > report.MaxYear {
				return fmt.Errorf("--year must be between %d and %d", report.MinYear, report.MaxYear)
			}
			cfg, err := loadConfig(cmd, g)
			if err != nil {
				return err
			}
			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			set := a.calendar.GetHolidays(cmd.Context(), year, region)
			return printHolidays(cmd.OutOrStdout(), set)
		},
	}

	cmd.Flags().IntVarP(&year, "year", "y", time.Now().Year(), "Year")
	cmd.Flags().StringVarP(&region, "region", "r", "", "State code, e.g. NW or DE-BY (default holidays.region)")
	return cmd
}

func printHolidays(w io.Writer, set holiday.HolidaySet) error {
	fmt.Fprintf(w, "Feiertage %d %s (%s)\n", set.Year, set.Region, set.Source)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, e := range set.List() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Date.German(), report.WeekdayName(e.Date.Weekday()), e.Name)
	}
	return tw.Flush()
}
