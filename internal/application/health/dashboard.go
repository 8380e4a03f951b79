package health

import (
	"bytes"
	"encoding/json"
	"html/template"
	"strconv"

	"greenpulse-backend/internal/application/emails"
)

var dashboardTmpl = template.Must(template.New("dashboard").Funcs(template.FuncMap{
	"amount": emails.FormatAmount,
	"ping": func(p *int64) string {
		if p == nil {
			return "?"
		}
		return strconv.FormatInt(*p, 10)
	},
	"ok": func(status string) bool { return status == "connected" || status == "reachable" },
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>GreenPulse · Ledger API Status</title>
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <style>
    :root { --green: #2F855A; --dark: #1C4532; --bg: #F0FFF4; --muted: #64748b; --red: #E53E3E; }
    body { background: var(--bg); color: var(--dark); font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; margin: 0; padding: 40px 20px; }
    .container { max-width: 1100px; margin: 0 auto; }
    h1 { font-size: 44px; font-weight: 900; letter-spacing: -2px; margin: 0 0 8px 0; }
    h1.issue { color: var(--red); }
    .subtext { color: var(--muted); font-weight: 700; margin-bottom: 30px; }
    .grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(250px, 1fr)); gap: 20px; }
    .card { background: #fff; border-radius: 20px; padding: 30px; box-shadow: 0 20px 60px -20px rgba(47,133,90,0.2); }
    .label { text-transform: uppercase; font-size: 11px; font-weight: 900; letter-spacing: 2px; color: #94a3b8; margin-bottom: 20px; }
    .big { font-size: 36px; font-weight: 900; margin-bottom: 10px; }
    .row { display: flex; justify-content: space-between; padding: 7px 0; border-bottom: 1px solid rgba(0,0,0,0.04); font-size: 14px; font-weight: 700; }
    .pill { padding: 3px 10px; border-radius: 8px; font-size: 11px; font-weight: 900; }
    .pill.ok { background: rgba(47,133,90,0.1); color: var(--green); }
    .pill.err { background: rgba(229,62,62,0.1); color: var(--red); }
    .footer { margin-top: 24px; font-family: monospace; font-size: 13px; color: var(--muted); display: flex; gap: 20px; }
    a { color: var(--green); font-weight: 800; }
  </style>
</head>
<body>
  <div class="container">
    {{if eq .Health.Status "ok"}}<h1>All Systems Operational</h1>{{else}}<h1 class="issue">System Issues Detected</h1>{{end}}
    <p class="subtext">Project funding ledger · <a href="/health/json">/health/json</a> · <a href="/health/errors">/health/errors</a></p>
    <div class="grid">
      <div class="card">
        <div class="label">Traffic</div>
        <div class="big">{{.Health.Traffic.TotalRequests}}</div>
        <div class="row"><span>Successful</span><span>{{.Health.Traffic.SuccessCount}}</span></div>
        <div class="row"><span>Failed</span><span>{{.Health.Traffic.FailedCount}}</span></div>
        <div class="row"><span>Success Rate</span><span>{{.Health.Traffic.SuccessRate}}%</span></div>
        <div class="row"><span>Avg Latency</span><span>{{.Health.Traffic.AvgResponseTime}}ms</span></div>
      </div>
      <div class="card">
        <div class="label">Runtime</div>
        <div class="big">{{.Health.Runtime.UptimeSeconds}}s</div>
        <div class="row"><span>Heap Used</span><span>{{.Health.Runtime.Memory.HeapUsed}} MB</span></div>
        <div class="row"><span>Goroutines</span><span>{{.Health.Runtime.Goroutines}}</span></div>
        <div class="row"><span>Go</span><span>{{.Health.Runtime.GoVersion}}</span></div>
        <div class="row"><span>Platform</span><span>{{.Health.Runtime.Platform}}</span></div>
      </div>
      <div class="card">
        <div class="label">Connectivity</div>
        {{range .Deps}}<div class="row"><span>{{.Name}}</span><span class="pill {{if ok .Status}}ok{{else}}err{{end}}">{{.Status}} · {{ping .PingMs}} ms</span></div>
        {{end}}
      </div>
      {{with .Health.Ledger}}
      <div class="card">
        <div class="label">Ledger</div>
        <div class="big">{{amount .TotalRaised}}</div>
        <div class="row"><span>Donations</span><span>{{.Donations}}</span></div>
        {{range $status, $n := .ProjectsByStatus}}<div class="row"><span>{{$status}}</span><span>{{$n}}</span></div>
        {{end}}
        {{range .RecentlyFunded}}<div class="row"><span>Funded</span><span>{{.Title}}</span></div>
        {{end}}
      </div>
      {{end}}
    </div>
    {{with .Health.Traffic.LastRequest}}<div class="footer"><span>LAST INBOUND</span><span>{{index . "method"}}</span><span>{{index . "path"}}</span></div>{{end}}
  </div>
  <script>window.__HEALTH__ = {{.JSON}};</script>
</body>
</html>`))

type depRow struct {
	Name   string
	Status string
	PingMs *int64
}

// RenderDashboardHTML returns the HTML status page for GET /.
func RenderDashboardHTML(h CollectResult) (string, error) {
	deps := make([]depRow, 0, len(h.Dependencies))
	for _, name := range h.DependencyNames() {
		if d, ok := h.Dependencies[name]; ok {
			deps = append(deps, depRow{Name: name, Status: d.Status, PingMs: d.PingMs})
		}
	}
	raw, err := json.Marshal(h)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	err = dashboardTmpl.Execute(&buf, struct {
		Health CollectResult
		Deps   []depRow
		JSON   template.JS
	}{h, deps, template.JS(raw)})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
