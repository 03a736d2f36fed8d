package api

import (
	"io"
	"net/http"
)

// The docs are served by the API itself so a classroom only needs the one
// binary: /docs is the entry page, /docs/rest the endpoint manual and
// /docs/events the session-channel protocol.

func serveHTML(w http.ResponseWriter, page string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, page)
}

func (s *Server) handleDocsIndex(w http.ResponseWriter, r *http.Request) {
	serveHTML(w, docsIndexHTML)
}

func (s *Server) handleDocsREST(w http.ResponseWriter, r *http.Request) {
	serveHTML(w, docsRESTHTML)
}

func (s *Server) handleDocsEvents(w http.ResponseWriter, r *http.Request) {
	serveHTML(w, docsEventsHTML)
}

const docsStyle = `<style>
body { font-family: system-ui, sans-serif; max-width: 920px; margin: 2rem auto; padding: 0 1rem; color: #1c2733; }
h1, h2 { border-bottom: 1px solid #d8dee6; padding-bottom: .3rem; }
code, pre { background: #f4f6f8; border-radius: 4px; }
code { padding: .1rem .3rem; }
pre { padding: .8rem; overflow-x: auto; }
table { border-collapse: collapse; width: 100%; margin: 1rem 0; }
th, td { text-align: left; border: 1px solid #d8dee6; padding: .4rem .6rem; vertical-align: top; }
th { background: #f4f6f8; }
.method { font-weight: 600; white-space: nowrap; }
</style>`

const docsIndexHTML = `<!doctype html>
<html lang="en">
<head><meta charset="utf-8"><title>Library Streaming API</title>` + docsStyle + `</head>
<body>
<h1>Library Streaming API</h1>
<p>A configurable engine that emits synthetic library events (books, issues)
over a WebSocket session channel, built for teaching reactive stream
programming. You control emission timing, injected errors, duplicates,
delivery jitter and bursts per stream.</p>

<h2>Manuals</h2>
<ul>
<li><a href="/docs/rest">REST endpoints</a>: stream control, presets, the library catalog, auth.</li>
<li><a href="/docs/events">Session channel</a>: the WebSocket protocol, event names and stream configuration.</li>
</ul>

<h2>Quick start</h2>
<pre>
# watch everything (one socket carries all streams)
websocat ws://localhost:8080/ws

# start the default books stream, one event every 3 seconds
curl -X POST localhost:8080/api/streams/start \
  -H 'Content-Type: application/json' \
  -d '{"streamName":"books"}'

# or start a teaching scenario
curl -X POST localhost:8080/api/streams/presets/errorHandling

# stop it again
curl -X POST localhost:8080/api/streams/books/stop
</pre>

<p>Operational endpoints: <code>GET /health</code> and <code>GET /metrics</code> (Prometheus).</p>
</body>
</html>`

const docsRESTHTML = `<!doctype html>
<html lang="en">
<head><meta charset="utf-8"><title>REST endpoints</title>` + docsStyle + `</head>
<body>
<p><a href="/docs">&larr; back</a></p>
<h1>REST endpoints</h1>

<h2>Stream control (no auth)</h2>
<table>
<tr><th>Endpoint</th><th>Description</th></tr>
<tr><td class="method">GET /api/streams</td><td>Active stream count and their configurations.</td></tr>
<tr><td class="method">POST /api/streams/start</td><td>Start (or replace) a stream. Body is a configuration object; <code>streamName</code> is required, everything else falls back to defaults. See the <a href="/docs/events">session channel manual</a> for the fields.</td></tr>
<tr><td class="method">POST /api/streams/{name}/stop</td><td>Stop one stream. Idempotent: stopping an unknown name answers 200 with <code>"stopped": false</code>.</td></tr>
<tr><td class="method">POST /api/streams/stop-all</td><td>Stop every active stream.</td></tr>
<tr><td class="method">GET /api/streams/presets</td><td>The preset catalog with full configurations.</td></tr>
<tr><td class="method">POST /api/streams/presets/{name}</td><td>Start every stream of a preset. Unknown preset answers 404.</td></tr>
</table>

<h2>Auth</h2>
<table>
<tr><th>Endpoint</th><th>Description</th></tr>
<tr><td class="method">POST /api/auth/register</td><td>Body <code>{"name","email","password"}</code>. Answers the user plus a bearer token. The very first account becomes the admin.</td></tr>
<tr><td class="method">POST /api/auth/login</td><td>Body <code>{"email","password"}</code>. Answers the user plus a bearer token.</td></tr>
</table>
<p>Protected endpoints expect <code>Authorization: Bearer &lt;token&gt;</code>.</p>

<h2>Library catalog</h2>
<table>
<tr><th>Endpoint</th><th>Auth</th><th>Description</th></tr>
<tr><td class="method">GET /api/books</td><td>-</td><td>List the catalog.</td></tr>
<tr><td class="method">GET /api/books/{id}</td><td>-</td><td>One catalog entry.</td></tr>
<tr><td class="method">POST /api/books</td><td>token</td><td>Add a book (<code>title</code> and <code>author</code> required).</td></tr>
<tr><td class="method">PUT /api/books/{id}</td><td>token</td><td>Update a book's descriptive fields. Availability is owned by the borrow flow.</td></tr>
<tr><td class="method">DELETE /api/books/{id}</td><td>admin</td><td>Remove a book.</td></tr>
</table>

<h2>Circulation</h2>
<table>
<tr><th>Endpoint</th><th>Auth</th><th>Description</th></tr>
<tr><td class="method">GET /api/issues</td><td>-</td><td>All loans on record.</td></tr>
<tr><td class="method">POST /api/issues</td><td>token</td><td>Borrow a book: body <code>{"bookId": 3}</code>. 409 when the copy is out.</td></tr>
<tr><td class="method">POST /api/issues/{id}/return</td><td>token</td><td>Return a loan. A late return answers the issue plus the fine it created.</td></tr>
<tr><td class="method">GET /api/fines</td><td>token</td><td>Your fines; admins see all.</td></tr>
<tr><td class="method">POST /api/fines/{id}/pay</td><td>token</td><td>Settle a fine. 409 when already paid.</td></tr>
</table>

<h2>Users</h2>
<table>
<tr><th>Endpoint</th><th>Auth</th><th>Description</th></tr>
<tr><td class="method">GET /api/users/me</td><td>token</td><td>The authenticated account.</td></tr>
<tr><td class="method">GET /api/users</td><td>admin</td><td>All registered accounts.</td></tr>
</table>
</body>
</html>`

const docsEventsHTML = `<!doctype html>
<html lang="en">
<head><meta charset="utf-8"><title>Session channel</title>` + docsStyle + `</head>
<body>
<p><a href="/docs">&larr; back</a></p>
<h1>Session channel</h1>

<p>Connect to <code>ws://host/ws</code>. Every frame in both directions is an
envelope:</p>
<pre>{"event": "&lt;name&gt;", "data": &lt;payload&gt;}</pre>
<p>On connect the server greets you with <code>stream-configs</code>, the map
of currently active streams. There is no replay: events emitted before you
connected are gone, and a client that cannot keep up loses frames rather
than slowing the emitters down.</p>

<h2>Commands (client to server)</h2>
<table>
<tr><th>Event</th><th>Data</th><th>Effect</th></tr>
<tr><td><code>start-stream</code></td><td>configuration object, may be omitted</td><td>Start or replace a stream. Missing fields resolve to defaults, so an empty command starts <code>books</code>.</td></tr>
<tr><td><code>stop-stream</code></td><td><code>"books"</code> or <code>{"streamName":"books"}</code></td><td>Stop one stream.</td></tr>
<tr><td><code>get-configs</code></td><td>-</td><td>Reply with <code>stream-configs</code> to this client only.</td></tr>
</table>

<h2>Events (server to client)</h2>
<table>
<tr><th>Event</th><th>Payload</th></tr>
<tr><td><code>&lt;stream&gt;</code> (e.g. <code>books</code>)</td><td>One emitted record.</td></tr>
<tr><td><code>&lt;stream&gt;-error</code></td><td><code>{"error":true,"message","timestamp"}</code>, an injected fault. The stream keeps running.</td></tr>
<tr><td><code>&lt;stream&gt;-complete</code></td><td><code>{"streamName","totalEmissions","duration"}</code> when the configured duration ran out.</td></tr>
<tr><td><code>stream-started</code></td><td><code>{"streamName","config"}</code></td></tr>
<tr><td><code>stream-stopped</code></td><td><code>{"streamName"}</code>, after an explicit stop.</td></tr>
<tr><td><code>stream-configs</code></td><td>Map of stream name to configuration.</td></tr>
<tr><td><code>error</code></td><td><code>{"message"}</code>, reply to a bad command.</td></tr>
</table>

<h2>Stream configuration</h2>
<table>
<tr><th>Field</th><th>Default</th><th>Meaning</th></tr>
<tr><td><code>streamName</code></td><td><code>books</code></td><td><code>books</code> or <code>issues</code>; unknown names emit book records.</td></tr>
<tr><td><code>interval</code></td><td>3000</td><td>ms between emissions. The first emission fires immediately.</td></tr>
<tr><td><code>duration</code></td><td>120000</td><td>ms until the stream completes itself. <code>0</code> completes immediately.</td></tr>
<tr><td><code>errorRate</code></td><td>0</td><td>Percent of ticks that emit an injected error instead of data.</td></tr>
<tr><td><code>duplicateRate</code></td><td>0</td><td>Percent of ticks that re-emit the previous record.</td></tr>
<tr><td><code>delayVariation</code></td><td>0</td><td>Adds a random delay of up to this many ms to each emission.</td></tr>
<tr><td><code>burstMode</code></td><td>false</td><td>Emit groups instead of single events.</td></tr>
<tr><td><code>burstSize</code></td><td>3</td><td>Events per burst, staggered about 100 ms apart.</td></tr>
<tr><td><code>burstInterval</code></td><td>10000</td><td>ms between bursts.</td></tr>
</table>

<p>On each tick exactly one thing happens, checked in this order: the
duration runs out, an error is injected, a duplicate is replayed, or a
fresh record is emitted.</p>

<h2>Presets</h2>
<table>
<tr><th>Name</th><th>Scenario</th></tr>
<tr><td><code>basic</code></td><td>Default books stream.</td></tr>
<tr><td><code>fastEmission</code></td><td>Books every 500 ms, for map and filter drills.</td></tr>
<tr><td><code>throttleDebounce</code></td><td>Books every 300 ms, a source worth throttling.</td></tr>
<tr><td><code>errorHandling</code></td><td>Books with a 20 percent error rate for 90 seconds.</td></tr>
<tr><td><code>duplicates</code></td><td>A 30 percent duplicate rate, for distinct-style operators.</td></tr>
<tr><td><code>burstTraffic</code></td><td>Bursts of five every 8 seconds, for buffering exercises.</td></tr>
<tr><td><code>networkJitter</code></td><td>Up to 2 seconds of delivery jitter per event.</td></tr>
<tr><td><code>multiStream</code></td><td>Books and issues at once, for merge and combine work.</td></tr>
</table>
</body>
</html>`
