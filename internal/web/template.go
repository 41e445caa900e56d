package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/termina-clock/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		sec := int(d.Seconds()) % 60
		switch {
		case days > 0:
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, sec)
		case h > 0:
			return fmt.Sprintf("%dh %dm %ds", h, m, sec)
		case m > 0:
			return fmt.Sprintf("%dm %ds", m, sec)
		}
		return fmt.Sprintf("%ds", sec)
	},
	"percent": func(f float64) string {
		return fmt.Sprintf("%.1f%%", f*100)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Termina Clock</title>
<style>
body { font-family: monospace; max-width: 640px; margin: 2em auto; padding: 0 1em; background: #FFFFFF; color: #000000; }
body.dark { background: #1E1E1E; color: #FFFFFF; }
h1 { font-size: 1.4em; }
.face { font-size: 2.4em; font-weight: bold; text-align: center; white-space: pre-line; padding: 0.6em 0; margin: 0.5em 0; border: 2px solid #000000; }
body.dark .face { border-color: #FFFFFF; background: #2D2D2D; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
body.dark td, body.dark th { border-bottom: 1px solid #444; }
th { width: 40%; }
.connected { color: green; }
.disconnected { color: red; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
.live-dot.pending { background: orange; }
.controls button { font-family: monospace; margin-right: 6px; }
a { color: inherit; }
</style>
</head>
<body class="{{if .Settings.DarkMode}}dark{{end}}">
<h1>Termina Clock<span id="live-dot" class="live-dot pending" title="connecting"></span></h1>

<div id="face" class="face">{{if .Ticked}}{{.Display}}{{else}}starting{{end}}</div>

<p class="controls">
<button data-toggle="dark_mode" data-value="{{if .Settings.DarkMode}}false{{else}}true{{end}}">Toggle dark</button>
<button data-toggle="mute_hour" data-value="{{if .Settings.MuteHour}}false{{else}}true{{end}}">Toggle hour chime</button>
<button data-toggle="mute_final" data-value="{{if .Settings.MuteFinal}}false{{else}}true{{end}}">Toggle final audio</button>
<button data-toggle="show_seconds" data-value="{{if .Settings.ShowSeconds}}false{{else}}true{{end}}">Toggle seconds</button>
</p>
{{if .Settings.Debug}}
<p class="controls">
<button data-advance="3600">+1h</button>
<button data-advance="-3600">-1h</button>
<button data-advance="60">+1m</button>
<button id="debug-reset">Reset offset</button>
</p>
{{end}}

<h2>Cycle</h2>
<table>
<tr><th>Day</th><td>{{if .Ticked}}{{.State.Day}}{{else}}-{{end}}</td></tr>
<tr><th>Hour</th><td>{{if .Ticked}}{{printf "%.2f" .State.Hour}}{{else}}-{{end}}</td></tr>
<tr><th>Remaining</th><td>{{if .Ticked}}{{.State.Remaining}}{{else}}-{{end}}</td></tr>
<tr><th>Progress</th><td>{{if .Ticked}}{{percent .State.Progress}}{{else}}-{{end}}</td></tr>
<tr><th>Night</th><td>{{if .Ticked}}{{if .State.Night}}yes{{else}}no{{end}}{{else}}-{{end}}</td></tr>
</table>

<h2>Settings</h2>
<table>
<tr><th>Mode</th><td>{{.Settings.Mode}}</td></tr>
<tr><th>Cycle ends</th><td>{{.Settings.EpochEnd.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Hour chime</th><td>{{if .Settings.MuteHour}}muted{{else}}on{{end}}</td></tr>
<tr><th>Final audio</th><td>{{if .Settings.MuteFinal}}muted{{else}}on{{end}}</td></tr>
<tr><th>Seconds</th><td>{{if .Settings.ShowSeconds}}shown{{else}}hidden{{end}}</td></tr>
{{if .Settings.Debug}}<tr><th>Debug offset</th><td>{{.Settings.DebugOffset}}</td></tr>{{end}}
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
<tr><th>Night lamp</th><td>{{if lt .Config.LampPin 0}}disabled{{else}}{{if .LampOn}}on{{else}}off{{end}} (pin {{.Config.LampPin}}){{end}}</td></tr>
</table>

<h2>Cue Counts</h2>
<table>
<tr><th>Hour chimes</th><td>{{.Counts.HourChimes}}</td></tr>
<tr><th>Final starts</th><td>{{.Counts.FinalStarts}}</td></tr>
<tr><th>Bells starts</th><td>{{.Counts.BellsStarts}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Tick</th><td>{{.Config.TickMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
<script>
(function() {
  var dot = document.getElementById("live-dot");
  var face = document.getElementById("face");

  function setDot(cls, title) {
    dot.className = "live-dot " + cls;
    dot.title = title;
  }

  function applyFrame(f) {
    if (f.ready) {
      face.textContent = f.display;
    }
    document.body.className = f.dark_mode ? "dark" : "";
  }

  function connect() {
    var proto = location.protocol === "https:" ? "wss://" : "ws://";
    var ws = new WebSocket(proto + location.host + "/ws");
    ws.onopen = function() { setDot("ok", "live"); };
    ws.onclose = function() {
      setDot("err", "disconnected");
      setTimeout(connect, 5000);
    };
    ws.onerror = function() { setDot("err", "error"); };
    ws.onmessage = function(ev) {
      try { applyFrame(JSON.parse(ev.data)); } catch (e) {}
    };
  }
  connect();

  function post(path, body) {
    fetch(path, {
      method: "POST",
      headers: { "Content-Type": "application/json" },
      body: JSON.stringify(body)
    }).then(function(r) {
      if (!r.ok) {
        return r.json().then(function(e) { alert(e.error); });
      }
    }).catch(function() {});
  }

  document.querySelectorAll("[data-toggle]").forEach(function(btn) {
    btn.addEventListener("click", function() {
      var body = {};
      body[btn.dataset.toggle] = btn.dataset.value === "true";
      btn.dataset.value = btn.dataset.value === "true" ? "false" : "true";
      post("/api/settings", body);
    });
  });

  document.querySelectorAll("[data-advance]").forEach(function(btn) {
    btn.addEventListener("click", function() {
      post("/api/debug/advance", { seconds: parseFloat(btn.dataset.advance) });
    });
  });

  var resetBtn = document.getElementById("debug-reset");
  if (resetBtn) {
    resetBtn.addEventListener("click", function() {
      post("/api/debug/reset", {});
    });
  }
})();
</script>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has an Uptime() method but the template wants a field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
