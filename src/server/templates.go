package server

import "html/template"

const indexTemplateName = "index"

var indexTemplate = template.Must(template.New(indexTemplateName).Parse(indexHTML))

// indexHTML is the single dashboard page. All data arrives over /ws.
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<style>
  body { font-family: sans-serif; margin: 0; background: #f4f5f7; color: #222; }
  header { padding: 12px 20px; background: #1f2d3d; color: #fff; }
  .controls { display: flex; gap: 24px; padding: 12px 20px; align-items: center; flex-wrap: wrap; }
  .control label { display: block; font-size: 13px; }
  .grid { display: grid; grid-template-columns: 2fr 1fr; gap: 12px; padding: 0 20px 20px; }
  .panel { background: #fff; border-radius: 4px; padding: 10px; position: relative; }
  .panel .status { position: absolute; top: 6px; right: 10px; font-size: 12px; color: #b00020; }
  #map { height: 480px; }
  table { width: 100%; border-collapse: collapse; font-size: 13px; }
  td, th { padding: 4px 6px; border-bottom: 1px solid #eee; text-align: left; }
  tr.minor { background: #eaf6ea; }
  tr.minimal-risk { background: #fff8e1; }
  tr.alert { background: #fdecea; }
  .charts svg { width: 100%; height: auto; }
  .summary div { margin: 6px 0; }
  #error { color: #b00020; padding: 0 20px; min-height: 1em; }
  #last-updated { color: #555; padding: 0 20px; font-size: 0.9em; }
</style>
</head>
<body>
<header><h2>{{.Title}}</h2></header>

<div class="controls">
  <div class="control">
    <label for="min_magnitude">Minimum magnitude: <span id="min_magnitude_value"></span></label>
    <input type="range" id="min_magnitude" data-param="min_magnitude">
  </div>
  <div class="control">
    <label for="max_depth">Maximum depth (km): <span id="max_depth_value"></span></label>
    <input type="range" id="max_depth" data-param="max_depth">
  </div>
  <div class="control">
    <label for="time_range_hours">Time range (hours): <span id="time_range_hours_value"></span></label>
    <input type="range" id="time_range_hours" data-param="time_range_hours">
  </div>
  <button id="retry">Retry</button>
</div>
<div id="error"></div>
<div id="last-updated"></div>

<div class="grid">
  <div class="panel"><span class="status" data-view="map"></span><div id="map"></div></div>
  <div class="panel summary"><span class="status" data-view="summary"></span>
    <div>Total earthquakes: <b id="total"></b></div>
    <div>Largest magnitude: <b id="largest"></b></div>
    <div>Most recent: <b id="most_recent"></b></div>
  </div>
  <div class="panel"><span class="status" data-view="table"></span>
    <table><thead><tr><th>#</th><th>Magnitude</th><th>Depth</th><th>Time</th><th>Locality</th></tr></thead>
    <tbody id="rows"></tbody></table>
  </div>
  <div class="panel charts"><span class="status" data-view="charts"></span>
    <div id="time_series"></div>
    <div id="magnitude_histogram"></div>
    <div id="top_localities"></div>
  </div>
</div>

<script>
const CONFIG = {{.}};

const map = L.map("map").setView([CONFIG.map.center_lat, CONFIG.map.center_lon], CONFIG.map.zoom);
L.tileLayer(CONFIG.map.tile_url, { attribution: CONFIG.map.attribution }).addTo(map);
const markers = L.layerGroup().addTo(map);

const controls = {
  min_magnitude: CONFIG.controls.magnitude,
  max_depth: CONFIG.controls.depth,
  time_range_hours: CONFIG.controls.time_range,
};

let socket;

function send(cmd) {
  if (socket && socket.readyState === WebSocket.OPEN) {
    socket.send(JSON.stringify(cmd));
  }
}

for (const [param, rc] of Object.entries(controls)) {
  const input = document.getElementById(param);
  input.min = rc.min; input.max = rc.max; input.step = rc.step;
  input.value = CONFIG.defaults[param];
  document.getElementById(param + "_value").textContent = input.value;
  input.addEventListener("input", () => {
    document.getElementById(param + "_value").textContent = input.value;
  });
  input.addEventListener("change", () => {
    send({ command: "filter", [param]: parseFloat(input.value) });
  });
}
document.getElementById("retry").addEventListener("click", () => send({ command: "retry" }));

const render = {
  map(p) {
    markers.clearLayers();
    for (const m of p.markers || []) {
      L.circleMarker([m.lat, m.lon], {
        radius: m.radius, fillColor: m.fill_color, color: m.color, weight: m.weight,
        opacity: m.opacity, fillOpacity: m.fill_opacity,
      }).bindPopup(m.popup).addTo(markers);
    }
  },
  summary(p) {
    document.getElementById("total").textContent = p.total;
    document.getElementById("largest").textContent = p.largest;
    document.getElementById("most_recent").textContent = p.most_recent;
  },
  table(p) {
    const body = document.getElementById("rows");
    body.replaceChildren();
    for (const r of p.rows || []) {
      const tr = document.createElement("tr");
      tr.className = r.class;
      for (const v of [r.number, r.magnitude, r.depth, r.time, r.locality]) {
        const td = document.createElement("td");
        td.textContent = v;
        tr.appendChild(td);
      }
      body.appendChild(tr);
    }
  },
  charts(p) {
    document.getElementById("time_series").innerHTML = p.time_series;
    document.getElementById("magnitude_histogram").innerHTML = p.magnitude_histogram;
    document.getElementById("top_localities").innerHTML = p.top_localities;
  },
};

function setFilter(f) {
  for (const param of Object.keys(controls)) {
    const input = document.getElementById(param);
    input.value = f[param];
    document.getElementById(param + "_value").textContent = f[param];
  }
}

function setStatus(s) {
  const el = document.querySelector('.status[data-view="' + s.endpoint + '"]');
  if (!el) return;
  el.textContent = s.state === "failed" ? "update failed: " + (s.error || "") : (s.state === "pending" ? "loading…" : "");
}

function pad(n) { return String(n).padStart(2, "0"); }

function setLastUpdated(ts) {
  const d = new Date(ts);
  document.getElementById("last-updated").textContent = "Last updated at: " +
    d.getFullYear() + "-" + pad(d.getMonth() + 1) + "-" + pad(d.getDate()) + " " +
    pad(d.getHours()) + ":" + pad(d.getMinutes()) + ":" + pad(d.getSeconds());
}

function connect() {
  const proto = location.protocol === "https:" ? "wss://" : "ws://";
  socket = new WebSocket(proto + location.host + "/ws");
  socket.onmessage = (ev) => {
    const msg = JSON.parse(ev.data);
    switch (msg.type) {
      case "view": if (render[msg.view]) render[msg.view](msg.payload); break;
      case "status":
        setStatus(msg.payload);
        if (msg.payload.state === "applied") setLastUpdated(msg.timestamp);
        break;
      case "filter": setFilter(msg.payload); break;
      case "error": document.getElementById("error").textContent = msg.payload.error; break;
    }
  };
  socket.onclose = () => setTimeout(connect, 2000);
}
connect();
</script>
</body>
</html>
`
