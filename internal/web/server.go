// Package web serves the read-only operator/competitor dashboard: the
// scoring grid in three render modes, the leaderboard, and the patch-file
// listing.
package web

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"os"
	"sort"
	"strconv"
	"time"

	"scylla/internal/config"
	"scylla/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

//go:embed templates/*.html
var templatesFS embed.FS

// GridMode selects which value the grid cells render.
type GridMode int

const (
	ModePercentage GridMode = iota
	ModeUptime
	ModeSLA
)

// DataSource is the subset of the store the dashboard reads. Defined here
// so tests can substitute a fake without a live Postgres instance.
type DataSource interface {
	GridRows(ctx context.Context) ([]store.ServiceRow, error)
	Columns(ctx context.Context) ([]store.ServiceColumn, error)
	Leaderboard(ctx context.Context) ([]store.LeaderboardRow, error)
}

type Server struct {
	round     *config.Round
	store     DataSource
	router    *chi.Mux
	templates *template.Template
}

func New(round *config.Round, st DataSource) *Server {
	tmpl := template.Must(template.New("").ParseFS(templatesFS, "templates/*.html"))

	s := &Server{
		round:     round,
		store:     st,
		router:    chi.NewRouter(),
		templates: tmpl,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/", s.handleGrid(ModePercentage))
	s.router.Get("/scores", s.handleGrid(ModePercentage))
	s.router.Get("/uptime", s.handleGrid(ModeUptime))
	s.router.Get("/slas", s.handleGrid(ModeSLA))
	s.router.Get("/leaderboard", s.handleLeaderboard)
	s.router.Get("/patch-server", s.handlePatchListing)
	s.router.Handle("/patch-files/*", s.handlePatchFiles())
}

func (s *Server) ListenAndServe() error {
	return http.ListenAndServe(":"+strconv.Itoa(int(s.round.WebPort)), s.router)
}

// gridCell is one (team, vm, service) intersection, rendered per mode.
type gridCell struct {
	VMID      string
	ServiceID string
	Value     int
	Positive  bool
}

type gridRow struct {
	TeamID string
	Cells  map[string]gridCell // keyed by vm_id+"/"+svc_id
}

type gridColumn struct {
	VMID      string
	ServiceID string
	Key       string
}

type gridPageData struct {
	Mode    string
	Columns []gridColumn
	Rows    []gridRow
	Injects []injectBandEntry
}

type injectBandEntry struct {
	Title         string
	Description   string
	ActivationMin uint
}

func (s *Server) handleGrid(mode GridMode) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		rows, err := s.store.GridRows(ctx)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		cols, err := s.store.Columns(ctx)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		columns := make([]gridColumn, len(cols))
		for i, c := range cols {
			columns[i] = gridColumn{VMID: c.VMID, ServiceID: c.ServiceID, Key: c.VMID + "/" + c.ServiceID}
		}

		byTeam := map[string]*gridRow{}
		var teamOrder []string
		for _, row := range rows {
			gr, ok := byTeam[row.TeamID]
			if !ok {
				gr = &gridRow{TeamID: row.TeamID, Cells: map[string]gridCell{}}
				byTeam[row.TeamID] = gr
				teamOrder = append(teamOrder, row.TeamID)
			}

			var uptimePct int
			if row.CheckCount > 0 {
				uptimePct = int(float64(row.UptimeScore) / float64(row.CheckCount) * 100.0)
			}
			positive := uptimePct > 50

			var value int
			switch mode {
			case ModeUptime:
				value = row.UptimeScore
			case ModeSLA:
				value = row.SLACount
			default:
				value = uptimePct
			}

			key := row.VMID + "/" + row.ServiceID
			gr.Cells[key] = gridCell{VMID: row.VMID, ServiceID: row.ServiceID, Value: value, Positive: positive}
		}

		sort.Strings(teamOrder)
		gridRows := make([]gridRow, 0, len(teamOrder))
		for _, teamID := range teamOrder {
			gridRows = append(gridRows, *byTeam[teamID])
		}

		data := gridPageData{
			Mode:    modeName(mode),
			Columns: columns,
			Rows:    gridRows,
			Injects: s.recentInjects(),
		}

		if err := s.templates.ExecuteTemplate(w, "grid.html", data); err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}
}

func modeName(mode GridMode) string {
	switch mode {
	case ModeUptime:
		return "uptime"
	case ModeSLA:
		return "slas"
	default:
		return "scores"
	}
}

// recentInjects lists injects whose start-offset minutes have elapsed,
// carrying their activation point as (offset+duration) minutes after the
// round start; no absolute activation timestamp is computed.
func (s *Server) recentInjects() []injectBandEntry {
	now := time.Now().UTC()
	var entries []injectBandEntry
	for _, inj := range s.round.Injects {
		offsetDeadline := s.round.Start.Add(time.Duration(inj.OffsetMin) * time.Minute)
		if now.Before(offsetDeadline) {
			continue
		}
		entries = append(entries, injectBandEntry{
			Title:         inj.Meta.Title,
			Description:   inj.Meta.Description,
			ActivationMin: inj.OffsetMin + inj.DurationMin,
		})
	}
	return entries
}

type leaderboardEntry struct {
	Rank   int
	TeamID string
	Score  int
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	rows, err := s.store.Leaderboard(r.Context())
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	entries := make([]leaderboardEntry, len(rows))
	for i, row := range rows {
		entries[i] = leaderboardEntry{Rank: i + 1, TeamID: row.TeamID, Score: row.Score}
	}

	if err := s.templates.ExecuteTemplate(w, "leaderboard.html", entries); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

type patchFileEntry struct {
	Name  string
	IsDir bool
}

func (s *Server) handlePatchListing(w http.ResponseWriter, r *http.Request) {
	entries, err := os.ReadDir(s.round.PatchServerDir)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	files := make([]patchFileEntry, len(entries))
	for i, e := range entries {
		files[i] = patchFileEntry{Name: e.Name(), IsDir: e.IsDir()}
	}

	if err := s.templates.ExecuteTemplate(w, "patch_listing.html", files); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (s *Server) handlePatchFiles() http.Handler {
	return http.StripPrefix("/patch-files/", http.FileServer(http.Dir(s.round.PatchServerDir)))
}
