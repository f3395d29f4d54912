// Package api implements the notes HTTP API on top of the route, parse and
// middleware packages.
package api

import (
	"log/slog"

	"go.hackfix.me/waypoint/db/models"
	dbtypes "go.hackfix.me/waypoint/db/types"
	"go.hackfix.me/waypoint/web/server/middleware"
	"go.hackfix.me/waypoint/web/server/parse"
	"go.hackfix.me/waypoint/web/server/route"
	"go.hackfix.me/waypoint/web/server/types"
	"go.hackfix.me/waypoint/xtask"
)

// NotePattern matches the path of a single note, capturing its ID.
var NotePattern = route.MustRegex(`^/notes/(?<ID>[a-z0-9]+)$`)

const notesTarget = "notes"

// Handler is the API endpoint handler.
type Handler struct {
	db     dbtypes.Querier
	logger *slog.Logger
	idGen  func() string
}

// SetupRoutes returns the API route table. If idGen is nil, note IDs are
// generated with cuid2.
func SetupRoutes(d dbtypes.Querier, logger *slog.Logger, idGen func() string) *route.Router {
	h := &Handler{db: d, logger: logger, idGen: idGen}

	return route.New(
		route.Get(route.Literal("/"), route.Simple(h.Index)),
		route.Get(route.Literal("/notes"), h.protect(models.ActionRead, h.ListNotes)),
		route.Post(route.Literal("/notes"), h.protect(models.ActionWrite, h.CreateNote)),
		route.Get(NotePattern, h.protect(models.ActionRead, h.GetNote)),
		route.Put(NotePattern, h.protect(models.ActionWrite, h.ReplaceNote)),
		route.Patch(NotePattern, h.protect(models.ActionWrite, h.UpdateNote)),
		route.Delete(NotePattern, h.protect(models.ActionWrite, h.DeleteNote)),
	)
}

// Guards returns the checks every API request passes before routing.
func Guards() []route.Guard {
	return []route.Guard{middleware.RequireAccept("application/json")}
}

// protect wraps fn so that it only runs for requests authorized to perform
// action on notes. The handler receives the merged request metadata and the
// parsed body.
func (h *Handler) protect(action string, fn parse.ExplodedHandler) route.Target {
	authorized := middleware.With(middleware.Authorize(h.db, action, notesTarget))
	exploded := parse.Explode(fn)

	return route.Contextual(func(opts route.Options, req *types.Request) xtask.Task[*types.Response] {
		return authorized(func(_ middleware.Auth, req *types.Request) xtask.Task[*types.Response] {
			return exploded(opts, req)
		})(req)
	})
}

// Index returns a short banner.
func (h *Handler) Index(*types.Request) xtask.Task[*types.Response] {
	return xtask.Of(types.OK(types.TextHeaders(), []byte("waypoint notes API\n")))
}
