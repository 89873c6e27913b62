// Package mcp exposes the tracker's data and prescription engine to LLM
// clients over a local stdio MCP server. Read-only: logging and imports stay
// with the CLI.
package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/meltforce/traintrack/internal/program"
)

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, catalog *program.Catalog, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("traintrack", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("Local training-program tracker. Query the active user's workout history, per-exercise set logs, and the set/rep targets the program prescribes for any week. All data is scoped to the active user."),
	)

	h := &handlers{ds: ds, catalog: catalog, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolGetTodaysSession, Handler: h.getTodaysSession},
		server.ServerTool{Tool: toolGetTargets, Handler: h.getTargets},
		server.ServerTool{Tool: toolListWorkouts, Handler: h.listWorkouts},
		server.ServerTool{Tool: toolGetExerciseHistory, Handler: h.getExerciseHistory},
		server.ServerTool{Tool: toolGetSettings, Handler: h.getSettings},
	)

	s.AddResources(
		server.ServerResource{Resource: resProgramOverview, Handler: h.programOverview},
		server.ServerResource{Resource: resRecentWorkouts, Handler: h.recentWorkouts},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds      DataSource
	catalog *program.Catalog
	log     *slog.Logger
}

// --- Resource definitions ---

var resProgramOverview = mcp.NewResource(
	"traintrack://program",
	"Program Overview",
	mcp.WithResourceDescription("The active user's program: schedule, weeks, phases, warmup and deload rule"),
	mcp.WithMIMEType("application/json"),
)

var resRecentWorkouts = mcp.NewResource(
	"traintrack://recent_workouts",
	"Recent Workouts",
	mcp.WithResourceDescription("The ten most recent workouts with their exercise logs"),
	mcp.WithMIMEType("application/json"),
)
