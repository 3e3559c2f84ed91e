package notify

import (
	"bytes"
	"html/template"
)

var templates = template.Must(template.New("notify").Parse(`
{{define "complaint"}}<h2>New Complaint</h2>
<p><strong>From:</strong> {{.Student}}</p>
<p><strong>Description:</strong> {{.Text}}</p>
{{if .ImageURL}}<p><img src="{{.ImageURL}}" alt="Complaint Image" style="max-width: 300px;"></p>
{{end}}<p><strong>Date:</strong> {{.Date}}</p>{{end}}

{{define "reply"}}<h2>Reply to Your Complaint</h2>
<p>Hi {{.Student}},</p>
<p><strong>Secretary {{.Secretary}} has replied to your complaint:</strong></p>
<p style="background: #f5f5f5; padding: 15px; border-left: 4px solid #667eea;">{{.Message}}</p>
<p><strong>Date:</strong> {{.Date}}</p>{{end}}

{{define "menu"}}<h2>Menu Updated</h2>
<table border="1" cellpadding="6" style="border-collapse: collapse;">
<tr><th>Day</th><th>Breakfast</th><th>Lunch</th><th>Dinner</th></tr>
<tr><td><em>Timings</em></td>{{range .Timings}}<td><em>{{.}}</em></td>{{end}}</tr>
{{range .Rows}}<tr><td>{{.Day}}</td>{{range .Slots}}<td>{{.}}</td>{{end}}</tr>
{{end}}</table>
<p><strong>Updated:</strong> {{.Date}}</p>{{end}}

{{define "menu_document"}}<h2>Mess Menu Timetable</h2>
<p>Find attached the current menu timetable PDF.</p>{{end}}

{{define "notice"}}<h2>{{.Title}}</h2>
<p>{{.Message}}</p>
<p><strong>Date:</strong> {{.Date}}</p>{{end}}
`))

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
