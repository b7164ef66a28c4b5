// Command attendance-console is the facilitator's terminal for running an
// attendance session against the hub API: list the roster, sign students in
// and out (optionally at a manual time), and close the event.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"github.com/cshaw-hub/hub-api/internal/controller"
	"github.com/cshaw-hub/hub-api/internal/dto"
	"github.com/cshaw-hub/hub-api/internal/models"
	"github.com/cshaw-hub/hub-api/pkg/client"
	"github.com/cshaw-hub/hub-api/pkg/config"
)

const usage = `usage: attendance-console -activity <id> <command> [flags]

commands:
  roster                     show the attendance snapshot
  signin  -record <id> [-time HH:MM]
  signout -record <id> [-time HH:MM]
  bulk                       sign out every remaining student at the event end
`

func main() {
	activityID := flag.String("activity", "", "activity id to run the session for")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if *activityID == "" || flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fatal("failed to load config: %v", err)
	}
	logr := zap.NewNop()

	repo := client.New(cfg.Console, logr)
	session := controller.NewSessionController(repo, logr)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := session.Load(ctx, *activityID); err != nil {
		fatal("failed to load session: %v", err)
	}

	command := flag.Arg(0)
	sub := flag.NewFlagSet(command, flag.ExitOnError)
	recordID := sub.String("record", "", "attendance record id")
	manualTime := sub.String("time", "", "manual time HH:MM")
	sub.Parse(flag.Args()[1:]) //nolint:errcheck

	switch command {
	case "roster":
		printRoster(session)
	case "signin", "signout":
		if *recordID == "" {
			fatal("signin/signout require -record")
		}
		action := dto.ActionSignIn
		if command == "signout" {
			action = dto.ActionSignOut
		}
		warnBelowFloor(session, *recordID, action, *manualTime)
		res, err := session.Dispatch(ctx, controller.Command{
			RecordID:     *recordID,
			Action:       action,
			OverrideTime: *manualTime,
		})
		if err != nil {
			fatal("%v", err)
		}
		fmt.Printf("%s at %s", res.Message, res.Time.Format("15:04"))
		if res.Hours > 0 {
			fmt.Printf(" (%.2f hours)", res.Hours)
		}
		fmt.Println()
		printRoster(session)
	case "bulk":
		res, err := session.BulkComplete(ctx)
		if err != nil {
			fatal("%v", err)
		}
		fmt.Println(res.Message)
		printRoster(session)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func printRoster(session *controller.SessionController) {
	activity := session.Activity()
	if activity == nil {
		return
	}
	fmt.Printf("%s | %s | %s - %s\n",
		activity.Title, activity.Campus,
		activity.StartTime.Format("02 Jan 2006 15:04"),
		activity.EndTime().Format("15:04"))

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RECORD\tSTUDENT\tROLE\tSTATUS\tIN\tOUT\tHOURS")
	for _, record := range session.Records() {
		role := string(models.RoleTypeGeneral)
		if record.RoleLabel != nil {
			role = *record.RoleLabel
		}
		fmt.Fprintf(w, "%s\t%s %s\t%s\t%s\t%s\t%s\t%.2f\n",
			record.ID, record.StudentName, record.StudentSurname, role,
			record.Status(), clock(record.SignInTime), clock(record.SignOutTime),
			record.HoursEarned)
	}
	w.Flush() //nolint:errcheck
}

// warnBelowFloor nudges the operator when a manual time is earlier than the
// sensible floor; the server has the final say either way.
func warnBelowFloor(session *controller.SessionController, recordID, action, manualTime string) {
	if manualTime == "" {
		return
	}
	record, ok := session.Record(recordID)
	if !ok {
		return
	}
	parsed, err := time.Parse("15:04", manualTime)
	if err != nil {
		return
	}
	floor := session.OverrideFloor(record)
	if floor.IsZero() {
		return
	}
	override := time.Date(floor.Year(), floor.Month(), floor.Day(),
		parsed.Hour(), parsed.Minute(), 0, 0, floor.Location())
	if override.Before(floor) {
		fmt.Fprintf(os.Stderr, "warning: %s %s is before %s; the server may reject it\n",
			action, manualTime, floor.Format("15:04"))
	}
}

func clock(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("15:04")
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
