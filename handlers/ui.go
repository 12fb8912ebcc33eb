package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ServeIndex serves the single-page classification UI.
// Inline HTML keeps the binary self-contained with no asset pipeline.
func (h *Handlers) ServeIndex(c *gin.Context) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, indexPage)
}

const indexPage = `<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width,initial-scale=1" />
    <title>Document Sensitivity Classifier</title>
    <style>
      body { margin: 0; font-family: system-ui, sans-serif; background: #0b1220; color: #e5e9f0; }
      main { max-width: 720px; margin: 0 auto; padding: 2rem 1rem; }
      h1 { font-size: 1.4rem; }
      .panel { background: #141c2f; border-radius: 8px; padding: 1.25rem; margin-top: 1rem; }
      #preview { max-width: 100%; max-height: 320px; border-radius: 6px; display: none; }
      button { background: #3b82f6; color: #fff; border: 0; border-radius: 6px; padding: 0.6rem 1.2rem; font-size: 1rem; cursor: pointer; }
      button:disabled { background: #374151; cursor: not-allowed; }
      .banner { border-radius: 6px; padding: 0.75rem 1rem; margin-top: 1rem; display: none; }
      #error { background: #7f1d1d; }
      #loading { background: #1e3a5f; }
      #result { background: #14532d; }
      .badge { display: inline-block; background: #3b82f6; border-radius: 999px; padding: 0.15rem 0.7rem; font-weight: 600; margin-bottom: 0.4rem; }
      #placeholder { color: #9ca3af; margin-top: 1rem; }
    </style>
  </head>
  <body>
    <main>
      <h1>Document Sensitivity Classifier</h1>
      <div class="panel">
        <input id="file" type="file" accept="image/*" />
        <p><img id="preview" alt="document preview" /></p>
        <button id="classify" disabled>Classify Document</button>
        <div id="placeholder">Upload a document image to get started.</div>
        <div id="loading" class="banner">Classifying&hellip;</div>
        <div id="error" class="banner"></div>
        <div id="result" class="banner">
          <span id="category" class="badge"></span>
          <div id="reason"></div>
        </div>
      </div>
    </main>
    <script>
      const el = (id) => document.getElementById(id);

      function render(state) {
        el('loading').style.display = state.status === 'classifying' ? 'block' : 'none';
        el('error').style.display = state.error ? 'block' : 'none';
        el('error').textContent = state.error || '';
        el('result').style.display = state.result ? 'block' : 'none';
        if (state.result) {
          el('category').textContent = state.result.category;
          el('reason').textContent = state.result.reason;
        }
        el('placeholder').style.display =
          state.error || state.result || state.status === 'classifying' ? 'none' : 'block';
        el('classify').disabled = !state.has_document || state.status === 'classifying';
        if (state.preview_path) {
          el('preview').src = state.preview_path + '?t=' + Date.now();
          el('preview').style.display = 'block';
        } else {
          el('preview').style.display = 'none';
        }
      }

      el('file').addEventListener('change', async () => {
        const file = el('file').files[0];
        if (!file) return;
        const form = new FormData();
        form.append('document', file);
        const resp = await fetch('/api/v1/document', { method: 'POST', body: form });
        const body = await resp.json();
        render(body.state);
      });

      el('classify').addEventListener('click', async () => {
        el('classify').disabled = true;
        render({ status: 'classifying', has_document: true, preview_path: el('preview').src ? '/api/v1/preview' : '' });
        try {
          const resp = await fetch('/api/v1/classify', { method: 'POST' });
          const body = await resp.json();
          render(body.state);
        } catch (err) {
          render({ status: 'failed', has_document: true, error: err.message || 'An unknown error occurred.' });
        }
      });

      fetch('/api/v1/state').then((r) => r.json()).then((b) => render(b.state));
    </script>
  </body>
</html>`
