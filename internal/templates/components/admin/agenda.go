package admin

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/a-h/templ"
)

// Agenda renders the admin appointment list grouped by day.
func Agenda(data AgendaData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.printf(`<h1>Agenda</h1><p>Hoje: %s &middot; %d em aberto &middot; %d concluídos</p>`,
			esc(data.Today), data.OpenCount, data.DoneCount)

		p.print(`<form method="get" action="/admin"><select name="filter">`)
		for _, opt := range data.Filters {
			selected := ""
			if opt.Selected {
				selected = " selected"
			}
			p.printf(`<option value="%s"%s>%s</option>`, esc(opt.Value), selected, esc(opt.Label))
		}
		checked := ""
		if data.IncludeDone {
			checked = " checked"
		}
		p.printf(`</select><label><input type="checkbox" name="include_done" value="true"%s> concluídos</label>`, checked)
		p.print(`<button type="submit">Filtrar</button></form>`)
		exportHref := data.ExportURL
		if exportHref == "" {
			exportHref = "/api/v1/admin/export.csv"
		}
		p.printf(`<p><a href="%s">Exportar CSV</a> &middot; <a href="/api/v1/admin/backup">Backup</a></p>`, esc(exportHref))
		p.print(`<form method="post" action="/admin/logout"><button type="submit">Sair</button></form>`)

		if len(data.Days) == 0 {
			p.print(`<p>Nenhum agendamento.</p>`)
		}
		for _, day := range data.Days {
			p.printf(`<section><h2>%s</h2><table>`, esc(day.Label))
			for _, row := range day.Open {
				p.printf(`<tr><td>%s</td><td>%s</td><td>%s</td><td>`, esc(row.Time), esc(row.Name), esc(row.Service))
				p.printf(`<form method="post" action="%s"><button type="submit">Concluir</button></form>`,
					esc(actionPath(row, "complete")))
				p.print(`</td></tr>`)
			}
			for _, row := range day.Done {
				p.printf(`<tr class="done"><td>%s</td><td>%s</td><td>%s</td><td>`, esc(row.Time), esc(row.Name), esc(row.Service))
				p.printf(`<form method="post" action="%s"><button type="submit">Reabrir</button></form>`,
					esc(actionPath(row, "reopen")))
				p.print(`</td></tr>`)
			}
			p.print(`</table></section>`)
		}
		return p.err
	})
}

// Login renders the admin password form.
func Login(data LoginData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.print(`<h1>Acesso restrito</h1>`)
		if data.Error != "" {
			p.printf(`<p role="alert">%s</p>`, esc(data.Error))
		}
		p.print(`<form method="post" action="/admin/login">`)
		p.print(`<label>Senha <input type="password" name="password" autocomplete="current-password" required></label>`)
		p.print(`<button type="submit">Entrar</button></form>`)
		return p.err
	})
}

func actionPath(row AppointmentRow, action string) string {
	return fmt.Sprintf("/api/v1/admin/appointments/%s/%s/%s",
		url.PathEscape(row.Date), url.PathEscape(row.Time), action)
}

func esc(s string) string {
	return templ.EscapeString(s)
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) print(s string) {
	if p.err != nil {
		return
	}
	_, p.err = io.WriteString(p.w, s)
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}
