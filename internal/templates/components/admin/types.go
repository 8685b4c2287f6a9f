package admin

type AppointmentRow struct {
	Date    string
	Time    string
	Name    string
	Service string
	DoneAt  string
}

type AgendaDay struct {
	Date  string
	Label string
	Open  []AppointmentRow
	Done  []AppointmentRow
}

type FilterOption struct {
	Value    string
	Label    string
	Selected bool
}

type AgendaData struct {
	Today       string
	Filters     []FilterOption
	IncludeDone bool
	ExportURL   string
	Days        []AgendaDay
	OpenCount   int
	DoneCount   int
}

type LoginData struct {
	Error string
}
