package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/codr1/nailbook/internal/booking"
	"github.com/codr1/nailbook/internal/calendar"
	"github.com/codr1/nailbook/internal/hours"
	"github.com/codr1/nailbook/internal/slots"
)

func newDayCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "day <YYYY-MM-DD>",
		Short: "Show the offered slots of a date and who holds them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := calendar.ParseDate(args[0])
			if err != nil {
				return err
			}

			s, err := env.open()
			if err != nil {
				return err
			}
			defer s.Close()

			engine, err := hours.NewEngine(*s.cfg.Hours)
			if err != nil {
				return err
			}
			svc, err := booking.NewService(booking.Config{
				Engine:   engine,
				Session:  s.session,
				Location: s.cfg.Location(),
				Services: s.cfg.Business.Services,
			})
			if err != nil {
				return err
			}

			ctx := commandContext(cmd)
			offer, err := svc.Offer(ctx, d)
			if err != nil {
				return err
			}
			var bucket []slots.Entry
			err = s.session.Read(ctx, func(store *slots.Store) error {
				bucket = store.Bucket(d)
				return nil
			})
			if err != nil {
				return err
			}
			holders := make(map[calendar.TimeOfDay]slots.Entry, len(bucket))
			for _, e := range bucket {
				holders[e.Time] = e
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s) %s\n", d.Label(), offer.Class, offer.Rule)
			rule := engine.Rule(d)
			fmt.Fprintf(out, "rule: %s, exclusive: %v\n", rule.Kind, rule.Exclusive)
			switch {
			case offer.Past:
				fmt.Fprintln(out, "date is in the past")
			case offer.Closed:
				fmt.Fprintln(out, "closed")
			case offer.Full:
				fmt.Fprintln(out, "fully booked")
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, slot := range offer.Slots {
				status := "free"
				holder := ""
				if slot.Taken {
					status = "taken"
					e := holders[slot.Time]
					holder = e.Name
					if e.Service != "" {
						holder += " (" + e.Service + ")"
					}
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", slot.Time, status, holder)
			}
			// Entries outside the current rules still hold the day.
			for _, e := range bucket {
				if !engine.IsAllowed(d, e.Time) {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Time, "off-rule", e.Name)
				}
			}
			return tw.Flush()
		},
	}
}
