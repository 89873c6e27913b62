package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/meltforce/traintrack/internal/models"
	"github.com/meltforce/traintrack/internal/program"
	"github.com/meltforce/traintrack/internal/schedule"
)

// --- Tool definitions ---

var toolGetTodaysSession = mcp.NewTool("get_todays_session",
	mcp.WithDescription("Resolve today's (or the next scheduled) session for the active user: session template, current program week, deload status, and the effective set/rep targets for every exercise."),
)

var toolGetTargets = mcp.NewTool("get_targets",
	mcp.WithDescription("Compute the prescribed set/rep targets for one exercise at a given program week, including any recovery-dependent volume bump."),
	mcp.WithString("exercise", mcp.Required(), mcp.Description("Exercise id (e.g. 'hip-thrust')")),
	mcp.WithNumber("week", mcp.Description("Program week number. Defaults to the current week derived from the program start date.")),
)

var toolListWorkouts = mcp.NewTool("list_workouts",
	mcp.WithDescription("List the active user's logged workouts, newest first, with their exercise logs and per-set weight/reps/RIR."),
	mcp.WithNumber("limit", mcp.Description("Maximum number of workouts to return. Defaults to 20.")),
)

var toolGetExerciseHistory = mcp.NewTool("get_exercise_history",
	mcp.WithDescription("All logged sets for one exercise across workouts, newest first."),
	mcp.WithString("exercise", mcp.Required(), mcp.Description("Exercise id")),
)

var toolGetSettings = mcp.NewTool("get_settings",
	mcp.WithDescription("The active user's settings: program start date and recovery flag."),
)

// --- Tool handlers ---

func (h *handlers) getTodaysSession(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prog := h.catalog.ProgramForUser(h.ds.ActiveUserID())
	settings := h.ds.Settings()
	now := time.Now()

	week := schedule.CurrentWeekNumber(settings.ProgramStart, prog.DurationWeeks, now)
	day, err := schedule.SessionForDate(now, prog.Schedule)
	if err != nil {
		return mcp.NewToolResultError("schedule lookup failed: " + err.Error()), nil
	}
	session, err := prog.Session(day.SessionID)
	if err != nil {
		return nil, err
	}

	type exerciseTargets struct {
		ExerciseID string                   `json:"exerciseId"`
		Name       string                   `json:"name"`
		Rest       string                   `json:"rest"`
		RIR        string                   `json:"rir"`
		Targets    []program.ComputedTarget `json:"targets"`
	}
	exercises := make([]exerciseTargets, 0, len(session.Exercises))
	for i := range session.Exercises {
		ex := &session.Exercises[i]
		exercises = append(exercises, exerciseTargets{
			ExerciseID: ex.ID,
			Name:       ex.Name,
			Rest:       ex.Rest,
			RIR:        ex.RIR,
			Targets:    program.ComputeTargets(ex, week, settings.RecoveryExcellent),
		})
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"week":      week,
		"weekInfo":  prog.WeekInfo(week),
		"deload":    schedule.IsDeloadWeek(prog, week),
		"session":   map[string]any{"id": session.ID, "title": session.Title, "subtitle": session.Subtitle},
		"nextDay":   day.Next,
		"weekday":   day.Day.String(),
		"warmup":    prog.Warmup,
		"exercises": exercises,
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getTargets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exerciseID, err := req.RequireString("exercise")
	if err != nil {
		return mcp.NewToolResultError("exercise parameter is required"), nil
	}

	prog := h.catalog.ProgramForUser(h.ds.ActiveUserID())
	settings := h.ds.Settings()

	week := req.GetInt("week", 0)
	if week == 0 {
		week = schedule.CurrentWeekNumber(settings.ProgramStart, prog.DurationWeeks, time.Now())
	}

	ex, ok := prog.FindExercise(exerciseID)
	if !ok {
		return mcp.NewToolResultError("unknown exercise: " + exerciseID), nil
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"exerciseId": ex.ID,
		"name":       ex.Name,
		"week":       week,
		"targets":    program.ComputeTargets(ex, week, settings.RecoveryExcellent),
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listWorkouts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 20)
	workouts := h.ds.Workouts()
	if limit > 0 && len(workouts) > limit {
		workouts = workouts[:limit]
	}

	result, err := mcp.NewToolResultJSON(h.attachExerciseLogs(workouts))
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getExerciseHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exerciseID, err := req.RequireString("exercise")
	if err != nil {
		return mcp.NewToolResultError("exercise parameter is required"), nil
	}

	var history []models.ExerciseLog
	for _, l := range h.ds.ExerciseLogs() {
		if l.ExerciseID == exerciseID {
			history = append(history, l)
		}
	}

	result, err := mcp.NewToolResultJSON(history)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getSettings(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(map[string]any{
		"userId":   h.ds.ActiveUserID(),
		"settings": h.ds.Settings(),
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

// --- Resource handlers ---

func (h *handlers) programOverview(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	prog := h.catalog.ProgramForUser(h.ds.ActiveUserID())

	data, err := json.Marshal(map[string]any{
		"name":          prog.Name,
		"durationWeeks": prog.DurationWeeks,
		"schedule":      prog.Schedule,
		"weeks":         prog.Weeks,
		"phases":        prog.Phases,
		"warmup":        prog.Warmup,
		"deload":        prog.Deload,
		"rules":         prog.Rules,
	})
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (h *handlers) recentWorkouts(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	workouts := h.ds.Workouts()
	if len(workouts) > 10 {
		workouts = workouts[:10]
	}

	data, err := json.Marshal(h.attachExerciseLogs(workouts))
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

type workoutDetail struct {
	models.WorkoutLog
	Exercises []models.ExerciseLog `json:"exercises"`
}

func (h *handlers) attachExerciseLogs(workouts []models.WorkoutLog) []workoutDetail {
	byWorkout := make(map[string][]models.ExerciseLog)
	for _, l := range h.ds.ExerciseLogs() {
		byWorkout[l.WorkoutID] = append(byWorkout[l.WorkoutID], l)
	}
	details := make([]workoutDetail, 0, len(workouts))
	for _, w := range workouts {
		details = append(details, workoutDetail{WorkoutLog: w, Exercises: byWorkout[w.ID]})
	}
	return details
}
