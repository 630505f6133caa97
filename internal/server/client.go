package server

import (
	"net/http"
	"sync"
)

var (
	// Cache the capture client script since it never changes.
	cachedScript     string
	cachedScriptOnce sync.Once
)

// clientScript returns the JavaScript capture client served to pages.
// The script is cached after first call.
func clientScript() string {
	cachedScriptOnce.Do(func() {
		cachedScript = generateClientScript()
	})
	return cachedScript
}

func (s *Server) handleClientScript(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write([]byte(clientScript()))
}

// generateClientScript creates the capture client JavaScript. The page
// side owns rendering (html2canvas against live DOM) and sprite drawing;
// the Go side owns everything else.
func generateClientScript() string {
	return `
(function() {
  'use strict';

  if (window.__anyclickClient) return;
  window.__anyclickClient = true;

  const protocol = window.location.protocol === 'https:' ? 'wss:' : 'ws:';
  const WS_URL = protocol + '//' + window.location.host + '/anyclick/ws';
  let ws = null;
  let reconnectAttempts = 0;
  const MAX_RECONNECT_ATTEMPTS = 5;
  let lastTarget = null;
  let lastContainer = null;

  // Load html2canvas lazily; render requests queue behind it.
  let h2cReady = null;
  function ensureHtml2Canvas() {
    if (h2cReady) return h2cReady;
    h2cReady = new Promise(function(resolve, reject) {
      if (window.html2canvas) return resolve(window.html2canvas);
      const s = document.createElement('script');
      s.src = 'https://cdn.jsdelivr.net/npm/html2canvas@1.4.1/dist/html2canvas.min.js';
      s.onload = function() { resolve(window.html2canvas); };
      s.onerror = function() { reject(new Error('html2canvas failed to load')); };
      document.head.appendChild(s);
    });
    return h2cReady;
  }

  function connect() {
    try {
      ws = new WebSocket(WS_URL);

      ws.onopen = function() {
        console.log('[anyclick] connected');
        reconnectAttempts = 0;
      };

      ws.onmessage = function(event) {
        try {
          handleServerMessage(JSON.parse(event.data));
        } catch (err) {
          console.error('[anyclick] bad server message:', err);
        }
      };

      ws.onclose = function() {
        if (reconnectAttempts < MAX_RECONNECT_ATTEMPTS) {
          reconnectAttempts++;
          setTimeout(connect, 1000 * reconnectAttempts);
        }
      };

      ws.onerror = function(err) {
        console.error('[anyclick] connection error:', err);
      };
    } catch (err) {
      console.error('[anyclick] failed to create WebSocket:', err);
    }
  }

  function send(msg) {
    if (ws && ws.readyState === WebSocket.OPEN) {
      ws.send(JSON.stringify(msg));
    }
  }

  function handleServerMessage(message) {
    switch (message.type) {
      case 'render':
        renderTarget(message.id, message.target);
        break;
      case 'highlight':
        applyHighlight(message.data || {});
        break;
      case 'toasts':
        showToasts(message.data || {});
        break;
      case 'pointerFrame':
        moveSprite(message.data || {});
        break;
    }
  }

  // Screenshot rendering. The element for each target comes from the
  // last right-click; viewport always renders against body.
  function targetElement(target) {
    if (target === 'viewport') return document.body;
    if (target === 'container') return lastContainer;
    return lastTarget;
  }

  function renderTarget(id, target) {
    const el = targetElement(target);
    if (!el) {
      send({ type: 'renderError', id: id, error: 'no element for target ' + target });
      return;
    }
    ensureHtml2Canvas().then(function(html2canvas) {
      return html2canvas(el, { logging: false, useCORS: true });
    }).then(function(canvas) {
      send({
        type: 'rendered',
        id: id,
        target: target,
        dataUrl: canvas.toDataURL('image/png'),
        width: canvas.width,
        height: canvas.height
      });
    }).catch(function(err) {
      send({ type: 'renderError', id: id, error: String(err) });
    });
  }

  // Right-click capture: remember the target and ship a serialized
  // snapshot of it plus its ancestor chain. The server walks the tree,
  // picks the container, and replies with a highlight patch.
  document.addEventListener('contextmenu', function(ev) {
    lastTarget = ev.target;
    lastContainer = null;
    const tree = serializeTree(ev.target);
    if (tree) send({ type: 'elementSelected', data: tree });
  }, true);

  function serializeElement(el, depth) {
    if (!el || el.nodeType !== 1) return null;
    const style = window.getComputedStyle(el);
    const rect = el.getBoundingClientRect();
    const attrs = {};
    for (const a of el.attributes) attrs[a.name] = a.value;
    const out = {
      tag: el.tagName.toLowerCase(),
      id: el.id || undefined,
      classes: el.className ? String(el.className).split(/\s+/).filter(Boolean) : undefined,
      attributes: attrs,
      innerText: depth === 0 ? (el.innerText || '') : '',
      outerHTML: depth === 0 ? el.outerHTML : '',
      display: style.display,
      visibility: style.visibility,
      rect: { x: rect.x, y: rect.y, width: rect.width, height: rect.height }
    };
    return out;
  }

  // Shallow node used for the siblings of the ancestor chain: enough for
  // the server's visibility counting, nothing more.
  function serializeShallow(el) {
    const style = window.getComputedStyle(el);
    const rect = el.getBoundingClientRect();
    return {
      tag: el.tagName.toLowerCase(),
      display: style.display,
      visibility: style.visibility,
      rect: { x: rect.x, y: rect.y, width: rect.width, height: rect.height }
    };
  }

  // Serialize the target plus its ancestor chain up to body. Each
  // ancestor carries shallow copies of its children so the server can
  // run container detection; the target node is marked with a data
  // attribute in the snapshot only.
  const MAX_SNAPSHOT_DEPTH = 10;
  function serializeTree(target) {
    let node = serializeElement(target, 0);
    if (!node) return null;
    node.attributes['data-anyclick-target'] = 'true';

    let cur = target;
    let child = node;
    for (let depth = 1; depth <= MAX_SNAPSHOT_DEPTH; depth++) {
      const parent = cur.parentElement;
      if (!parent || parent === document.documentElement) break;
      const pnode = serializeElement(parent, depth);
      if (!pnode) break;
      pnode.children = [];
      for (const sib of parent.children) {
        pnode.children.push(sib === cur ? child : serializeShallow(sib));
      }
      child = pnode;
      cur = parent;
      if (parent === document.body) break;
    }
    return child;
  }

  // Highlight patches mirror the server-side selection state.
  let highlightStyle = null;
  function applyHighlight(patch) {
    clearHighlight();
    if (!patch.css) return;
    highlightStyle = document.createElement('style');
    highlightStyle.textContent = patch.css;
    document.head.appendChild(highlightStyle);
    if (lastTarget) lastTarget.classList.add('anyclick-highlight');
    if (patch.container) {
      try {
        lastContainer = document.querySelector(patch.container);
      } catch (err) {
        lastContainer = null;
      }
      if (lastContainer) lastContainer.classList.add('anyclick-highlight-container');
    }
  }

  function clearHighlight() {
    if (highlightStyle) {
      highlightStyle.remove();
      highlightStyle = null;
    }
    for (const el of document.querySelectorAll('.anyclick-highlight, .anyclick-highlight-container')) {
      el.classList.remove('anyclick-highlight');
      el.classList.remove('anyclick-highlight-container');
    }
  }

  // Expose a submit hook the host page (or the context-menu UI) calls.
  // The element snapshot rides along; payload assembly, truncation, and
  // the cooldown all happen server-side.
  window.anyclickSubmit = function(type, comment, extras) {
    const el = lastTarget || document.body;
    const body = {
      type: type,
      comment: comment || '',
      snapshot: serializeTree(el),
      page: {
        url: window.location.href,
        title: document.title,
        viewportWidth: window.innerWidth,
        viewportHeight: window.innerHeight,
        screenWidth: window.screen.width,
        screenHeight: window.screen.height,
        userAgent: navigator.userAgent,
        referrer: document.referrer,
        timestamp: new Date().toISOString()
      }
    };
    if (extras) body.metadata = extras;
    return fetch('/feedback', {
      method: 'POST',
      headers: { 'Content-Type': 'application/json' },
      body: JSON.stringify(body)
    }).then(function(r) {
      clearHighlight();
      return r.json();
    });
  };

  // Toast rendering. The server's broadcast carries the configured
  // corner along with the active list.
  const TOAST_POSITIONS = {
    'top-right': 'top:16px;right:16px;',
    'top-left': 'top:16px;left:16px;',
    'bottom-right': 'bottom:16px;right:16px;',
    'bottom-left': 'bottom:16px;left:16px;'
  };

  let toastHost = null;
  function ensureToastHost(position) {
    const corner = TOAST_POSITIONS[position] || TOAST_POSITIONS['bottom-right'];
    if (toastHost && document.body.contains(toastHost) && toastHost.dataset.corner === corner) {
      return toastHost;
    }
    if (toastHost) toastHost.remove();
    toastHost = document.createElement('div');
    toastHost.dataset.corner = corner;
    toastHost.style.cssText = 'position:fixed;' + corner + 'z-index:2147483646;display:flex;flex-direction:column;gap:8px;';
    document.body.appendChild(toastHost);
    return toastHost;
  }

  const TOAST_COLORS = { success: '#16a34a', error: '#dc2626', warning: '#d97706', info: '#2563eb' };

  function showToasts(update) {
    const host = ensureToastHost(update.position);
    const toasts = update.toasts || [];
    host.textContent = '';
    for (const t of toasts) {
      const node = document.createElement('div');
      node.style.cssText = 'background:' + (TOAST_COLORS[t.type] || TOAST_COLORS.info) +
        ';color:#fff;padding:10px 14px;border-radius:6px;font:13px system-ui;max-width:320px;';
      node.textContent = t.title ? t.title + ': ' + t.message : t.message;
      host.appendChild(node);
    }
  }

  // Fun-mode kart sprite. Position comes from the server simulation;
  // the page only draws and reports key state.
  let sprite = null;
  function ensureSprite() {
    if (sprite && document.body.contains(sprite)) return sprite;
    sprite = document.createElement('div');
    sprite.style.cssText = 'position:fixed;left:0;top:0;width:24px;height:24px;z-index:2147483647;' +
      'pointer-events:none;will-change:transform;font-size:20px;';
    sprite.textContent = '🏎️';
    document.body.appendChild(sprite);
    return sprite;
  }

  function moveSprite(frame) {
    const node = ensureSprite();
    node.style.transform = 'translate(' + frame.x + 'px,' + frame.y + 'px) rotate(' + frame.angle + 'rad)';
  }

  const keys = { up: false, down: false, left: false, right: false };
  const KEYMAP = {
    ArrowUp: 'up', KeyW: 'up',
    ArrowDown: 'down', KeyS: 'down',
    ArrowLeft: 'left', KeyA: 'left',
    ArrowRight: 'right', KeyD: 'right'
  };

  function onKey(ev, pressed) {
    const dir = KEYMAP[ev.code];
    if (!dir || keys[dir] === pressed) return;
    keys[dir] = pressed;
    send({ type: 'pointerInput', up: keys.up, down: keys.down, left: keys.left, right: keys.right });
  }

  document.addEventListener('keydown', function(ev) { onKey(ev, true); });
  document.addEventListener('keyup', function(ev) { onKey(ev, false); });

  if (document.readyState === 'loading') {
    document.addEventListener('DOMContentLoaded', connect);
  } else {
    connect();
  }
})();
`
}
