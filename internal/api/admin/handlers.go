// internal/api/admin/handlers.go
package admin

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/nailbook/internal/api/apiutil"
	"github.com/codr1/nailbook/internal/calendar"
	"github.com/codr1/nailbook/internal/export"
	"github.com/codr1/nailbook/internal/legacy"
	"github.com/codr1/nailbook/internal/lifecycle"
	"github.com/codr1/nailbook/internal/slots"
	admintempl "github.com/codr1/nailbook/internal/templates/components/admin"
	"github.com/codr1/nailbook/internal/templates/layouts"
)

const maxRestoreBytes = 10 << 20

// Deps are the collaborators of the admin handlers.
type Deps struct {
	Manager  *lifecycle.Manager
	Session  *slots.Session
	Now      func() time.Time
	Location *time.Location
}

var (
	deps     *Deps
	depsOnce sync.Once
)

type reopenRequest struct {
	Name string `json:"name"`
}

type restoreResponse struct {
	Open    int      `json:"open"`
	Done    int      `json:"done"`
	Marked  int      `json:"marked"`
	Dropped []string `json:"dropped"`
}

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(d Deps) {
	if d.Manager == nil || d.Session == nil {
		return
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Location == nil {
		d.Location = time.Local
	}
	depsOnce.Do(func() {
		deps = &d
	})
}

// GET /admin
func HandleAgendaPage(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	d := loadDeps(w, r)
	if d == nil {
		return
	}

	filter, err := filterFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	agenda, err := d.Manager.Agenda(r.Context(), filter)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load agenda")
		http.Error(w, "Failed to load agenda", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	component := layouts.Base("Agenda", admintempl.Agenda(agendaData(agenda, filter)))
	if err := component.Render(r.Context(), w); err != nil {
		logger.Error().Err(err).Msg("Failed to render agenda page")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

// GET /api/v1/admin/appointments?filter=&date=&include_done=
func HandleAppointments(w http.ResponseWriter, r *http.Request) {
	d := loadDeps(w, r)
	if d == nil {
		return
	}

	filter, err := filterFromQuery(r)
	if err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest(err.Error(), err))
		return
	}

	agenda, err := d.Manager.Agenda(r.Context(), filter)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, agenda); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write agenda")
	}
}

// POST /api/v1/admin/appointments/{date}/{time}/complete
func HandleComplete(w http.ResponseWriter, r *http.Request) {
	d := loadDeps(w, r)
	if d == nil {
		return
	}

	date, t, err := slotFromPath(r)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	rec, err := d.Manager.Complete(r.Context(), date, t)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	respond(w, r, rec)
}

// POST /api/v1/admin/appointments/{date}/{time}/reopen
func HandleReopen(w http.ResponseWriter, r *http.Request) {
	d := loadDeps(w, r)
	if d == nil {
		return
	}

	date, t, err := slotFromPath(r)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	name, err := reopenName(r)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	entry, err := d.Manager.Reopen(r.Context(), date, t, name)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	respond(w, r, entry)
}

// GET /api/v1/admin/export.csv?filter=&date=&include_done=
// Exports what the agenda shows for the same filter. Done rows are included
// unless include_done says otherwise.
func HandleExportCSV(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	d := loadDeps(w, r)
	if d == nil {
		return
	}

	filter, err := exportFilterFromQuery(r)
	if err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest(err.Error(), err))
		return
	}

	rows, err := d.Manager.Rows(r.Context(), filter)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	filename := export.Filename(d.Now().In(d.Location))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := export.WriteCSV(w, rows); err != nil {
		logger.Error().Err(err).Msg("Failed to write CSV export")
		return
	}
	logger.Info().Int("rows", len(rows)).Msg("CSV export written")
}

// GET /api/v1/admin/backup
func HandleBackup(w http.ResponseWriter, r *http.Request) {
	d := loadDeps(w, r)
	if d == nil {
		return
	}

	var docs legacy.Documents
	err := d.Session.Read(r.Context(), func(store *slots.Store) error {
		var err error
		docs, err = legacy.Encode(store)
		return err
	})
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	filename := fmt.Sprintf("nailbook_backup_%s.json", d.Now().In(d.Location).Format("20060102"))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := apiutil.WriteJSON(w, http.StatusOK, docs); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write backup")
	}
}

// POST /api/v1/admin/restore
//
// Accepts any snapshot in the persisted shapes, normalises it and replaces
// the whole state. Malformed records are dropped and listed in the reply.
func HandleRestore(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	d := loadDeps(w, r)
	if d == nil {
		return
	}

	var docs legacy.Documents
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRestoreBytes)).Decode(&docs); err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest("Invalid backup document", err))
		return
	}

	restored, dropped := legacy.Normalize(docs, d.Now())
	for _, rec := range dropped {
		logger.Warn().Err(rec).Msg("Dropped malformed record during restore")
	}

	var resp restoreResponse
	err := d.Session.Update(r.Context(), func(store *slots.Store) error {
		store.Replace(restored)
		snap := store.Snapshot()
		for _, bucket := range snap.Open {
			resp.Open += len(bucket)
		}
		resp.Done = len(snap.Done)
		resp.Marked = len(snap.Marked)
		return nil
	})
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	resp.Dropped = make([]string, 0, len(dropped))
	for _, rec := range dropped {
		resp.Dropped = append(resp.Dropped, rec.Error())
	}
	logger.Info().
		Int("open", resp.Open).
		Int("done", resp.Done).
		Int("dropped", len(dropped)).
		Msg("State restored from backup")
	if err := apiutil.WriteJSON(w, http.StatusOK, resp); err != nil {
		logger.Error().Err(err).Msg("Failed to write restore result")
	}
}

func filterFromQuery(r *http.Request) (lifecycle.Filter, error) {
	query := r.URL.Query()
	return lifecycle.ParseFilter(query.Get("filter"), query.Get("date"), apiutil.ParseBoolField(query.Get("include_done")))
}

func exportFilterFromQuery(r *http.Request) (lifecycle.Filter, error) {
	query := r.URL.Query()
	includeDone := true
	if raw := strings.TrimSpace(query.Get("include_done")); raw != "" {
		includeDone = apiutil.ParseBoolField(raw)
	}
	return lifecycle.ParseFilter(query.Get("filter"), query.Get("date"), includeDone)
}

// exportURL links the CSV export to the filter currently shown.
func exportURL(filter lifecycle.Filter) string {
	values := url.Values{}
	if filter.Kind == lifecycle.FilterDate {
		values.Set("filter", filter.Date.String())
	} else {
		values.Set("filter", string(filter.Kind))
	}
	values.Set("include_done", strconv.FormatBool(filter.IncludeDone))
	return "/api/v1/admin/export.csv?" + values.Encode()
}

func slotFromPath(r *http.Request) (calendar.Date, calendar.TimeOfDay, error) {
	date, err := apiutil.DatePath(r, "date")
	if err != nil {
		return calendar.Date{}, "", err
	}
	t, err := apiutil.TimePath(r, "time")
	if err != nil {
		return calendar.Date{}, "", err
	}
	return date, t, nil
}

// reopenName reads the optional name from a JSON body or a form field.
func reopenName(r *http.Request) (string, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req reopenRequest
		if err := apiutil.DecodeJSON(r, &req); err != nil {
			return "", apiutil.BadRequest("Invalid JSON body", err)
		}
		return req.Name, nil
	}
	return r.FormValue("name"), nil
}

// respond answers form posts from the agenda page with a redirect back to
// it and API callers with JSON.
func respond(w http.ResponseWriter, r *http.Request, payload any) {
	if wantsHTML(r) {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, payload); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write response")
	}
}

func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

func agendaData(agenda lifecycle.Agenda, filter lifecycle.Filter) admintempl.AgendaData {
	data := admintempl.AgendaData{
		Today:       agenda.Today.Label(),
		IncludeDone: filter.IncludeDone,
		ExportURL:   exportURL(filter),
		OpenCount:   agenda.OpenCount,
		DoneCount:   agenda.DoneCount,
	}

	options := []admintempl.FilterOption{
		{Value: string(lifecycle.FilterAll), Label: "Todos"},
		{Value: string(lifecycle.FilterToday), Label: "Hoje"},
		{Value: string(lifecycle.FilterTomorrow), Label: "Amanhã"},
		{Value: string(lifecycle.FilterWeekend), Label: "Fim de semana"},
	}
	for _, d := range agenda.OpenDates {
		options = append(options, admintempl.FilterOption{Value: d.String(), Label: d.Label()})
	}
	selected := string(filter.Kind)
	if filter.Kind == lifecycle.FilterDate {
		selected = filter.Date.String()
	}
	for i := range options {
		options[i].Selected = options[i].Value == selected
	}
	data.Filters = options

	for _, day := range agenda.Days {
		view := admintempl.AgendaDay{Date: day.Date.String(), Label: day.Label}
		for _, row := range day.Open {
			view.Open = append(view.Open, appointmentRow(row))
		}
		for _, row := range day.Done {
			view.Done = append(view.Done, appointmentRow(row))
		}
		data.Days = append(data.Days, view)
	}
	return data
}

func appointmentRow(row slots.Row) admintempl.AppointmentRow {
	out := admintempl.AppointmentRow{
		Date:    row.Date.String(),
		Time:    row.Time.String(),
		Name:    row.Name,
		Service: row.Service,
	}
	if row.DoneAt != nil {
		out.DoneAt = row.DoneAt.UTC().Format(time.RFC3339)
	}
	return out
}

func loadDeps(w http.ResponseWriter, r *http.Request) *Deps {
	if deps == nil {
		log.Ctx(r.Context()).Error().Msg("Admin handlers not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil
	}
	return deps
}
