package settingsui

import "encoding/json"

// pageStyle is shared by the launcher and settings pages.
const pageStyle = `
* { margin: 0; padding: 0; box-sizing: border-box; }
body {
    font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif;
    background: #1e1e1e;
    color: #e0e0e0;
    padding: 24px 28px;
}
h2 { font-size: 18px; font-weight: 600; margin-bottom: 20px; }
h3 { font-size: 14px; font-weight: 600; margin: 20px 0 10px; color: #ccc; }
label {
    display: block;
    margin-top: 12px;
    font-size: 13px;
    color: #999;
}
input[type="text"], input[type="number"] {
    width: 100%;
    padding: 6px 8px;
    margin-top: 4px;
    background: #2d2d2d;
    border: 1px solid #444;
    border-radius: 4px;
    color: #e0e0e0;
    font-size: 13px;
}
input:focus { outline: none; border-color: #0078d4; }
.row { display: flex; gap: 8px; align-items: center; margin-top: 4px; }
.row input[type="text"] { flex: 1; margin-top: 0; }
.row input[type="color"] { width: 36px; height: 30px; border: none; background: none; }
.btn {
    padding: 6px 16px;
    background: #0078d4;
    color: white;
    border: none;
    border-radius: 4px;
    font-size: 13px;
    cursor: pointer;
}
.btn:hover { background: #006cbd; }
.btn-sm { padding: 4px 10px; font-size: 12px; }
.btn-ghost { background: transparent; color: #aaa; border: 1px solid #444; }
.btn-ghost:hover { background: #2d2d2d; color: #e0e0e0; }
.toggle { display: flex; align-items: center; gap: 8px; margin-top: 12px; font-size: 13px; }
.status { margin-top: 16px; font-size: 12px; min-height: 16px; color: #8f8; }
.status.error { color: #e55; }
.recent { list-style: none; margin-top: 8px; }
.recent li {
    padding: 8px 10px;
    border-bottom: 1px solid #2d2d2d;
    font-size: 13px;
    cursor: pointer;
    display: flex;
    justify-content: space-between;
}
.recent li:hover { background: #252525; }
.recent .meta { color: #777; font-size: 11px; }
.empty { color: #777; font-size: 12px; margin-top: 8px; }
`

// pageScript holds the helpers both pages use to run commands.
const pageScript = `
function invoke(command, args) {
    return fetch('/api/invoke/' + command, {
        method: 'POST',
        headers: { 'Content-Type': 'application/json' },
        body: JSON.stringify(args || {}),
    }).then(r => r.json().then(body => {
        if (!r.ok) throw new Error(body.error || r.statusText);
        return body.result;
    }));
}
function setStatus(text, isError) {
    const el = document.getElementById('status');
    if (!el) return;
    el.textContent = text;
    el.className = isError ? 'status error' : 'status';
}
function escapeHTML(s) {
    return String(s).replace(/[&<>"']/g, c => ({'&':'&amp;','<':'&lt;','>':'&gt;','"':'&quot;',"'":'&#39;'}[c]));
}
`

// renderLauncherHTML generates the page shown in the overlay window before a
// chat is opened. It embeds the recent chats as a JavaScript variable.
func renderLauncherHTML(recent interface{}) string {
	recentJSON, err := json.Marshal(recent)
	if err != nil || string(recentJSON) == "null" {
		recentJSON = []byte("[]")
	}

	return `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>YouTube Chat Overlay</title><style>` + pageStyle + `</style></head>
<body>
<h2>YouTube Chat Overlay</h2>
<form id="chat-form">
    <label for="chat-input">Stream URL or video id</label>
    <div class="row">
        <input type="text" id="chat-input" placeholder="https://www.youtube.com/watch?v=..." autofocus>
        <button class="btn" type="submit">Open</button>
    </div>
</form>
<div class="status" id="status"></div>
<div class="row" style="margin-top:12px">
    <button class="btn btn-ghost btn-sm" type="button" onclick="openSettings()">Settings</button>
</div>
<h3>Recent chats</h3>
<ul class="recent" id="recent"></ul>

<script>` + pageScript + `
const RECENT_INIT = ` + string(recentJSON) + `;

function openChat(streamId) {
    setStatus('Opening...', false);
    invoke('open_chat', { stream_id: streamId }).catch(e => setStatus('Invalid url! ' + e.message, true));
}

function openSettings() {
    invoke('open_settings_window').catch(e => setStatus(e.message, true));
}

function renderRecent(entries) {
    const el = document.getElementById('recent');
    if (!entries.length) {
        el.outerHTML = '<div class="empty" id="recent">No chats opened yet.</div>';
        return;
    }
    el.innerHTML = entries.map(e =>
        '<li onclick="openChat(\'' + escapeHTML(e.stream_id) + '\')"><span>' + escapeHTML(e.stream_id) +
        '</span><span class="meta">' + new Date(e.opened_at).toLocaleString() + ' &middot; ' + e.open_count + '&times;</span></li>'
    ).join('');
}

window.addEventListener('DOMContentLoaded', () => {
    document.getElementById('chat-form').addEventListener('submit', ev => {
        ev.preventDefault();
        const value = document.getElementById('chat-input').value.trim();
        if (value) openChat(value);
    });
    renderRecent(RECENT_INIT);
});
</script>
</body>
</html>`
}

// renderSettingsHTML generates the complete HTML for the settings window.
// It embeds the current settings as a JavaScript variable and keeps them in
// sync through the /ws channel.
func renderSettingsHTML(settings interface{}) string {
	settingsJSON, err := json.Marshal(settings)
	if err != nil {
		settingsJSON = []byte("{}")
	}

	return `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>YouTube Chat Overlay Settings</title><style>` + pageStyle + `</style></head>
<body>
<h2>Settings</h2>

<h3>Window</h3>
<div class="toggle"><input type="checkbox" id="locked" onchange="send('toggle_lock', { locked: this.checked })"><span>Lock window (click-through, always on top)</span></div>
<div class="toggle"><input type="checkbox" id="full_chat" onchange="send('toggle_full_chat', { full_chat: this.checked })"><span>Show all messages (Live chat)</span></div>

<h3>Text size</h3>
<div class="row">
    <button class="btn btn-ghost btn-sm" onclick="send('adjust_font_size', { increase: false })">&minus;</button>
    <input type="number" id="font_size" min="0.1" max="5" step="0.05" style="width:90px" onchange="send('set_font_size', { font_size: parseFloat(this.value) })">
    <button class="btn btn-ghost btn-sm" onclick="send('adjust_font_size', { increase: true })">+</button>
</div>

<h3>Fonts</h3>
<label for="message_font">Message font (Google Fonts name)</label>
<div class="row">
    <input type="text" id="message_font">
    <button class="btn btn-sm" onclick="sendText('set_message_font', 'font_name', 'message_font')">Apply</button>
    <button class="btn btn-ghost btn-sm" onclick="send('set_message_font', { font_name: null })">Reset</button>
</div>
<label for="author_font">Author font (Google Fonts name)</label>
<div class="row">
    <input type="text" id="author_font">
    <button class="btn btn-sm" onclick="sendText('set_author_font', 'font_name', 'author_font')">Apply</button>
    <button class="btn btn-ghost btn-sm" onclick="send('set_author_font', { font_name: null })">Reset</button>
</div>

<h3>Colors</h3>
<label for="background_color">Background</label>
<div class="row">
    <input type="text" id="background_color">
    <button class="btn btn-sm" onclick="sendText('set_background_color', 'color', 'background_color')">Apply</button>
    <button class="btn btn-ghost btn-sm" onclick="send('set_background_color', { color: null })">Reset</button>
</div>
<label for="message_color">Message text</label>
<div class="row">
    <input type="text" id="message_color">
    <button class="btn btn-sm" onclick="sendText('set_message_color', 'color', 'message_color')">Apply</button>
    <button class="btn btn-ghost btn-sm" onclick="send('set_message_color', { color: null })">Reset</button>
</div>
<label for="author_color">Author name</label>
<div class="row">
    <input type="text" id="author_color">
    <button class="btn btn-sm" onclick="sendText('set_author_color', 'color', 'author_color')">Apply</button>
    <button class="btn btn-ghost btn-sm" onclick="send('set_author_color', { color: null })">Reset</button>
</div>

<div class="status" id="status"></div>

<script>` + pageScript + `
let state = ` + string(settingsJSON) + `;
let ws = null;
let nextId = 1;
const pending = {};

const TEXT_FIELDS = ['message_font', 'author_font', 'background_color', 'message_color', 'author_color'];

function render() {
    document.getElementById('locked').checked = !!state.is_locked;
    document.getElementById('full_chat').checked = !!state.is_full_chat;
    document.getElementById('font_size').value = state.font_size;
    const defaults = state.defaults || {};
    TEXT_FIELDS.forEach(f => {
        const el = document.getElementById(f);
        if (document.activeElement !== el) el.value = state[f] || '';
        el.placeholder = defaults[f] || '';
    });
}

function refresh() {
    return send('get_settings').then(s => { state = s; render(); });
}

function send(command, args) {
    if (!ws || ws.readyState !== WebSocket.OPEN) {
        return invoke(command, args).then(done(command), fail);
    }
    const id = nextId++;
    return new Promise((resolve, reject) => {
        pending[id] = { resolve, reject };
        ws.send(JSON.stringify({ id, command, args: args || {} }));
    }).then(done(command), fail);
}

function sendText(command, key, field) {
    const value = document.getElementById(field).value.trim();
    return send(command, { [key]: value || null });
}

function done(command) {
    return result => {
        if (command !== 'get_settings') setStatus('Saved', false);
        return result;
    };
}

function fail(e) {
    setStatus(e.message || String(e), true);
    refresh().catch(() => {});
}

function connect() {
    ws = new WebSocket('ws://' + location.host + '/ws');
    ws.onmessage = ev => {
        const msg = JSON.parse(ev.data);
        if (msg.type === 'event') {
            if (msg.event === 'settings_changed' && msg.result) { state = msg.result; render(); }
            return;
        }
        const p = pending[msg.id];
        if (!p) return;
        delete pending[msg.id];
        if (msg.type === 'error') p.reject(new Error(msg.message)); else p.resolve(msg.result);
    };
    ws.onclose = () => { ws = null; setTimeout(connect, 1000); };
}

window.addEventListener('DOMContentLoaded', () => {
    render();
    connect();
});
</script>
</body>
</html>`
}
