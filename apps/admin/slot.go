package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/trezcool/backoffice/core/slot"
)

const dateLayout = "2006-01-02"

// dateFlag is a flag.Value holding an optional "YYYY-MM-DD" UTC date.
type dateFlag struct {
	t *time.Time
}

func (f *dateFlag) String() string {
	if f == nil || f.t == nil {
		return ""
	}
	return f.t.Format(dateLayout)
}

func (f *dateFlag) Set(s string) error {
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return fmt.Errorf("date must be formatted as %s", dateLayout)
	}
	f.t = &t
	return nil
}

// slotFlags binds the slot detail flags of create and update.
type slotFlags struct {
	instructor, room, level, start, end, currency string
	day, minCap, maxCap, sessions, duration       int
	price, margin                                 float64
	from, to                                      dateFlag
}

func (sf *slotFlags) register(fs *flag.FlagSet, currency string) {
	fs.StringVar(&sf.instructor, "instructor", "", "The instructor ID.")
	fs.StringVar(&sf.room, "room", "", "The room ID.")
	fs.StringVar(&sf.level, "level", "", "The course level ID.")
	fs.IntVar(&sf.day, "day", 0, "The day of week (0 = Sunday).")
	fs.StringVar(&sf.start, "start", "", "The start time (HH:mm).")
	fs.StringVar(&sf.end, "end", "", "The end time (HH:mm).")
	fs.Var(&sf.from, "from", "The first effective date (YYYY-MM-DD).")
	fs.Var(&sf.to, "to", "The last effective date (YYYY-MM-DD).")
	fs.IntVar(&sf.minCap, "min", 0, "The minimum capacity.")
	fs.IntVar(&sf.maxCap, "max", 0, "The maximum capacity.")
	fs.IntVar(&sf.sessions, "sessions", 0, "The planned number of sessions.")
	fs.IntVar(&sf.duration, "duration", 0, "The session duration in minutes.")
	fs.Float64Var(&sf.price, "price", 0, "The price per student.")
	fs.Float64Var(&sf.margin, "margin", 0, "The minimum margin percentage.")
	fs.StringVar(&sf.currency, "currency", currency, "The ISO currency code.")
}

func (sf *slotFlags) details() slot.Details {
	return slot.Details{
		InstructorID:        sf.instructor,
		RoomID:              sf.room,
		CourseLevelID:       sf.level,
		DayOfWeek:           sf.day,
		StartTime:           sf.start,
		EndTime:             sf.end,
		EffectiveFrom:       sf.from.t,
		EffectiveTo:         sf.to.t,
		MinCapacity:         sf.minCap,
		MaxCapacity:         sf.maxCap,
		PlannedSessions:     sf.sessions,
		SessionDurationMins: sf.duration,
		PricePerStudent:     sf.price,
		MinMarginPct:        sf.margin,
		Currency:            sf.currency,
	}
}

// patch builds an UpdateSlot from the flags explicitly set on fs.
func (sf *slotFlags) patch(fs *flag.FlagSet) slot.UpdateSlot {
	var us slot.UpdateSlot
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "instructor":
			us.InstructorID = &sf.instructor
		case "room":
			us.RoomID = &sf.room
		case "level":
			us.CourseLevelID = &sf.level
		case "day":
			us.DayOfWeek = &sf.day
		case "start":
			us.StartTime = &sf.start
		case "end":
			us.EndTime = &sf.end
		case "from":
			us.EffectiveFrom = sf.from.t
		case "to":
			us.EffectiveTo = sf.to.t
		case "min":
			us.MinCapacity = &sf.minCap
		case "max":
			us.MaxCapacity = &sf.maxCap
		case "sessions":
			us.PlannedSessions = &sf.sessions
		case "duration":
			us.SessionDurationMins = &sf.duration
		case "price":
			us.PricePerStudent = &sf.price
		case "margin":
			us.MinMarginPct = &sf.margin
		case "currency":
			us.Currency = &sf.currency
		}
	})
	return us
}

// slotCommand runs "slot create|update|remove".
func (cli *commandLine) slotCommand(ctx context.Context, args []string) error {
	if len(args) == 0 {
		cli.printUsage()
		return errHelp
	}

	fs := flag.NewFlagSet("slot "+args[0], flag.ContinueOnError)
	fs.SetOutput(cli.out)
	by := fs.String("by", cli.conf.Payroll.SystemActor, "The acting user recorded in the audit log.")

	switch args[0] {
	case "create":
		var sf slotFlags
		sf.register(fs, cli.conf.Payroll.DefaultCurrency)
		if err := fs.Parse(args[1:]); err != nil {
			return errHelp
		}
		s, err := cli.slots.Create(ctx, slot.NewSlot{Details: sf.details(), CreatedBy: *by})
		if err != nil {
			return err
		}
		cli.printSlot(s)
		return nil

	case "update":
		var sf slotFlags
		sf.register(fs, cli.conf.Payroll.DefaultCurrency)
		id := fs.String("id", "", "The slot ID.")
		clearDates := fs.Bool("clear-dates", false, "Drop both effective dates before applying -from and -to.")
		if err := fs.Parse(args[1:]); err != nil {
			return errHelp
		}
		if *id == "" {
			fs.Usage()
			return errHelp
		}
		us := sf.patch(fs)
		us.ClearEffectiveDates = *clearDates
		us.UpdatedBy = *by
		s, err := cli.slots.Update(ctx, *id, us)
		if err != nil {
			return err
		}
		cli.printSlot(s)
		return nil

	case "remove":
		id := fs.String("id", "", "The slot ID.")
		reason := fs.String("reason", "", "Why the slot is removed.")
		if err := fs.Parse(args[1:]); err != nil {
			return errHelp
		}
		if *id == "" {
			fs.Usage()
			return errHelp
		}
		if err := cli.slots.Remove(ctx, *id, *reason, *by); err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "slot %s removed\n", *id)
		return nil

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) printSlot(s slot.TeachingSlot) {
	fmt.Fprintf(cli.out, "slot %s  %s  day %d %s-%s  instructor %s  room %s\n",
		s.ID, s.Status, s.DayOfWeek, s.StartTime, s.EndTime, s.InstructorID, s.RoomID)
}
