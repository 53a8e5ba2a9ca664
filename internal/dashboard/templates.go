package dashboard

import "html/template"

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Wave Engine: Fib Zones</title>
<style>
body { font-family: sans-serif; max-width: 720px; margin: 2em auto; }
.err { color: #b00020; }
td { padding: 2px 12px 2px 0; }
</style>
</head>
<body>
<h1>Wave Engine</h1>
<p>Detect Wave 1, Ideal Entry Zone (Wave 2), and Projected Targets (Wave 3 / 5)</p>
<form method="get" action="/">
<label>Select Timeframe
<select name="interval" onchange="this.form.submit()">
{{range .Timeframes}}<option value="{{.}}"{{if eq . $.Interval}} selected{{end}}>{{.}}</option>
{{end}}</select>
</label>
</form>
{{with .Wave}}
{{if .Confirmed}}
<h2>{{$.Title}} Chart Analysis</h2>
<p>Wave 1 Low: <b>{{.Wave1Low}}</b></p>
<p>Wave 1 High: <b>{{.Wave1High}}</b></p>
<p>Current Price: <b>{{.CurrentPrice}}</b></p>
<p><b>Fib Retracement Zone (Entry - Wave 2):</b> {{.RetraceLow}} &rarr; {{.RetraceHigh}}</p>
<p>In Entry Zone: {{if .InEntryZone}}&#9989; Yes{{else}}&#10060; No{{end}}</p>
<h3>Projected Fib Extensions (Wave 3/5 Targets)</h3>
<table>
{{range .Targets}}<tr><td>{{.Label}}</td><td>{{.Price}}</td></tr>
{{end}}</table>
{{else}}
<p class="err">{{.Error}}</p>
{{end}}
{{end}}
{{with .Err}}<p class="err">{{.}}</p>{{end}}
</body>
</html>
`))

type indexPage struct {
	Timeframes []string
	Interval   string
	Title      string
	Wave       *WaveView
	Err        string
}
