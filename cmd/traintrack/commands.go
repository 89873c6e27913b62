package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/meltforce/traintrack/internal/mcp"
	"github.com/meltforce/traintrack/internal/models"
	"github.com/meltforce/traintrack/internal/program"
	"github.com/meltforce/traintrack/internal/schedule"
	"github.com/meltforce/traintrack/internal/store"
	"github.com/spf13/cobra"
)

func newTodayCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "Show today's session and its set/rep targets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			prog := a.catalog.ProgramForUser(a.store.ActiveUserID())
			settings := a.store.Settings()
			now := time.Now()

			week := schedule.CurrentWeekNumber(settings.ProgramStart, prog.DurationWeeks, now)
			day, err := schedule.SessionForDate(now, prog.Schedule)
			if err != nil {
				return err
			}
			session, err := prog.Session(day.SessionID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			info := prog.WeekInfo(week)
			fmt.Fprintf(out, "%s — week %d/%d (%s)\n", prog.Name, week, prog.DurationWeeks, info.Phase)
			if day.Next {
				fmt.Fprintf(out, "No session today; next: %s on %s\n", session.Title, day.Day)
			} else {
				fmt.Fprintf(out, "%s — %s\n", session.Title, session.Subtitle)
			}
			if schedule.IsDeloadWeek(prog, week) {
				fmt.Fprintf(out, "Deload week: %s\n", prog.Deload.Guidance)
			}
			fmt.Fprintln(out)

			for i := range session.Exercises {
				ex := &session.Exercises[i]
				fmt.Fprintf(out, "  %s (%s, rest %s, %s)\n", ex.Name, ex.Focus, ex.Rest, ex.RIR)
				for _, t := range program.ComputeTargets(ex, week, settings.RecoveryExcellent) {
					line := fmt.Sprintf("%d x %d-%d reps", t.TargetSets, t.RepRange[0], t.RepRange[1])
					if t.Label != "" {
						line += " — " + t.Label
					}
					fmt.Fprintf(out, "    %s\n", line)
				}
			}
			return nil
		},
	}
}

func newLogCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "log <session.json>",
		Short: "Record a finished session from a JSON payload",
		Long: `Record a finished session. The payload holds the performed sets per exercise:

  {
    "weekNumber": 2,
    "sessionType": "A",
    "deload": false,
    "exercises": [
      {"exerciseId": "hip-thrust",
       "sets": [{"weight": 60, "reps": 10, "rir": 2, "completed": true}]}
    ]
  }

weekNumber and sessionType default to today's schedule when omitted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var in store.SessionInput
			if err := json.Unmarshal(data, &in); err != nil {
				return fmt.Errorf("parsing session payload: %w", err)
			}

			prog := a.catalog.ProgramForUser(a.store.ActiveUserID())
			settings := a.store.Settings()
			now := time.Now()
			if in.WeekNumber == 0 {
				in.WeekNumber = schedule.CurrentWeekNumber(settings.ProgramStart, prog.DurationWeeks, now)
			}
			if in.SessionType == "" {
				day, err := schedule.SessionForDate(now, prog.Schedule)
				if err != nil {
					return err
				}
				in.SessionType = day.SessionID
				in.Deload = schedule.IsDeloadWeek(prog, in.WeekNumber)
			}

			id, err := a.store.LogSession(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged workout", id)
			return nil
		},
	}
}

func newHistoryCmd(a *app) *cobra.Command {
	var limit int
	var exerciseID string
	var workoutID string
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show logged workouts, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			if workoutID != "" {
				return printWorkout(cmd, a, workoutID)
			}

			if exerciseID != "" {
				count := 0
				for _, l := range a.store.ExerciseLogs() {
					if l.ExerciseID != exerciseID {
						continue
					}
					fmt.Fprintf(out, "%s  week %d  %s\n", l.Date, l.WeekNumber, formatSets(l))
					count++
					if limit > 0 && count >= limit {
						break
					}
				}
				return nil
			}

			workouts := a.store.Workouts()
			if limit > 0 && len(workouts) > limit {
				workouts = workouts[:limit]
			}
			for _, w := range workouts {
				deload := ""
				if w.Deload {
					deload = "  (deload)"
				}
				fmt.Fprintf(out, "%s  week %d  session %s%s\n", w.Date, w.WeekNumber, w.SessionType, deload)
				for _, l := range a.store.ExerciseLogs() {
					if l.WorkoutID == w.ID {
						fmt.Fprintf(out, "  %s: %s\n", l.ExerciseID, formatSets(l))
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum entries to show (0 = all)")
	cmd.Flags().StringVar(&exerciseID, "exercise", "", "show history for one exercise id")
	cmd.Flags().StringVar(&workoutID, "workout", "", "show one workout by id")
	return cmd
}

// printWorkout shows a single workout with its logs, read straight from the
// store rather than the mirror.
func printWorkout(cmd *cobra.Command, a *app, workoutID string) error {
	userID := a.store.ActiveUserID()
	w, err := a.db.GetWorkout(cmd.Context(), workoutID, userID)
	if err != nil {
		return err
	}
	if w == nil {
		return fmt.Errorf("no workout %q for %s", workoutID, userID)
	}
	logs, err := a.db.ListExerciseLogsByWorkout(cmd.Context(), workoutID, userID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	deload := ""
	if w.Deload {
		deload = "  (deload)"
	}
	fmt.Fprintf(out, "%s  week %d  session %s%s\n", w.Date, w.WeekNumber, w.SessionType, deload)
	if w.Notes != "" {
		fmt.Fprintf(out, "  notes: %s\n", w.Notes)
	}
	for _, l := range logs {
		fmt.Fprintf(out, "  %s: %s\n", l.ExerciseID, formatSets(l))
	}
	return nil
}

func newExportCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the active user's data as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			bundle, err := a.store.ExportData(cmd.Context())
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(bundle, "", "  ")
			if err != nil {
				return err
			}
			if output == "" {
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}
			a.log.Info("exported", "user", bundle.UserID, "workouts", len(bundle.Workouts), "file", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <bundle.json>",
		Short: "Validate a bundle and replace the target user's data with it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if err := a.store.ImportData(cmd.Context(), data); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d workouts for %s\n",
				len(a.store.Workouts()), a.store.ActiveUserID())
			return nil
		},
	}
}

func newResetCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all logs for the active user (settings are kept)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return fmt.Errorf("pass --yes to confirm deleting all logs for %s", a.store.ActiveUserID())
			}
			if err := a.store.Reset(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logs cleared for", a.store.ActiveUserID())
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	return cmd
}

func newSettingsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show the active user's settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := a.store.Settings()
			fmt.Fprintf(cmd.OutOrStdout(), "user: %s\nprogramStart: %s\nrecoveryExcellent: %v\n",
				a.store.ActiveUserID(), s.ProgramStart, s.RecoveryExcellent)
			return nil
		},
	}

	var recovery string
	var programStart string
	set := &cobra.Command{
		Use:   "set",
		Short: "Update settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var patch store.SettingsPatch
			if recovery != "" {
				v := strings.EqualFold(recovery, "true")
				if !v && !strings.EqualFold(recovery, "false") {
					return fmt.Errorf("--recovery-excellent must be true or false")
				}
				patch.RecoveryExcellent = &v
			}
			if programStart != "" {
				if _, err := time.Parse("2006-01-02", programStart); err != nil {
					return fmt.Errorf("--program-start must be YYYY-MM-DD: %w", err)
				}
				iso := programStart + "T00:00:00Z"
				patch.ProgramStart = &iso
			}
			if patch.RecoveryExcellent == nil && patch.ProgramStart == nil {
				return fmt.Errorf("nothing to change")
			}
			return a.store.SaveSettings(cmd.Context(), patch)
		},
	}
	set.Flags().StringVar(&recovery, "recovery-excellent", "", "enable or disable optional volume bumps (true/false)")
	set.Flags().StringVar(&programStart, "program-start", "", "program start date (YYYY-MM-DD)")
	cmd.AddCommand(set)
	return cmd
}

func newUserCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage the active user",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List known users",
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, u := range a.catalog.Users() {
				marker := " "
				if u.ID == a.store.ActiveUserID() {
					marker = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %-8s %s — %s\n", marker, u.ID, u.Name, u.Bio)
			}
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "switch <id>",
		Short: "Switch the active user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store.SwitchUser(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "active user:", a.store.ActiveUserID())
			return nil
		},
	})
	return cmd
}

func newMCPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the tracker's data over MCP on stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			srv := mcp.New(a.store, a.catalog, Version, a.log)
			a.log.Info("MCP server starting", "transport", "stdio")
			return server.ServeStdio(srv)
		},
	}
}

func formatSets(l models.ExerciseLog) string {
	parts := make([]string, 0, len(l.Sets))
	for _, s := range l.Sets {
		parts = append(parts, fmt.Sprintf("%gkg x %d @RIR%d", s.Weight, s.Reps, s.RIR))
	}
	return strings.Join(parts, ", ")
}
