package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/leak-sensor/internal/logic"
	"github.com/sweeney/leak-sensor/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		if days > 0 {
			return fmt.Sprintf("%dd %s", days, logic.FormatDuration(d-time.Duration(days)*24*time.Hour))
		}
		return logic.FormatDuration(d)
	},
	"duration": logic.FormatDuration,
	"ms": func(v int64) string {
		if v == 0 {
			return "disabled"
		}
		return (time.Duration(v) * time.Millisecond).String()
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="5">
<title>{{.Config.Device}}</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.detected { color: red; font-weight: bold; }
.normal { color: green; }
.pending { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>{{.Config.Device}}</h1>

<h2>Leak</h2>
<table>
<tr><th>State</th><td class="{{if not .Ready}}pending{{else if .Detected}}detected{{else}}normal{{end}}">{{if not .Ready}}WAITING{{else}}{{.Leak.State}}{{end}}</td></tr>
{{if .Detected}}<tr><th>Since</th><td>{{.Leak.LeakStart.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Duration</th><td>{{duration .LeakDuration}}</td></tr>
<tr><th>Last alert</th><td>{{.Leak.LastAlert.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
{{if .Episode}}<tr><th>Episode</th><td>{{.Episode}}</td></tr>{{end}}{{end}}
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}none{{end}}</td></tr>
<tr><th>Webhook</th><td>{{if .Config.Webhook}}configured{{else}}none{{end}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}: {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Counts</h2>
<table>
<tr><th>Episodes</th><td>{{.Leak.Counts.Episodes}}</td></tr>
<tr><th>Repeat alerts</th><td>{{.Leak.Counts.RepeatAlerts}}</td></tr>
<tr><th>Recoveries</th><td>{{.Leak.Counts.Recoveries}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Poll</th><td>{{ms .Config.PollMs}}</td></tr>
<tr><th>Debounce</th><td>{{ms .Config.DebounceMs}}</td></tr>
<tr><th>Alert interval</th><td>{{ms .Config.AlertIntervalMs}}</td></tr>
<tr><th>Heartbeat</th><td>{{ms .Config.HeartbeatMs}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	// Fields shadow the Snapshot methods of the same name.
	data := struct {
		status.Snapshot
		Uptime       time.Duration
		LeakDuration time.Duration
	}{
		Snapshot:     snap,
		Uptime:       snap.Uptime(),
		LeakDuration: snap.LeakDuration(),
	}
	return indexTmpl.Execute(w, data)
}
