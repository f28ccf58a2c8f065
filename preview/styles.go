package preview

const baselineCSS = `* {
  margin: 0;
  padding: 0;
  box-sizing: border-box;
}

body {
  font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
  line-height: 1.6;
  color: #333;
  background: #f8f9fa;
  padding: 20px;
}

.container {
  max-width: 800px;
  margin: 0 auto;
  background: white;
  padding: 2rem;
  border-radius: 8px;
  box-shadow: 0 2px 10px rgba(0,0,0,0.1);
}

h1 {
  color: #2c3e50;
  margin-bottom: 1rem;
  border-bottom: 2px solid #3498db;
  padding-bottom: 0.5rem;
}

p {
  color: #555;
  margin-bottom: 1.5rem;
}

#demo-area {
  margin-top: 2rem;
  padding: 1.5rem;
  background: #f8f9fa;
  border-radius: 6px;
  border: 1px solid #e9ecef;
}

#demo-button {
  background: #3498db;
  color: white;
  border: none;
  padding: 10px 20px;
  border-radius: 5px;
  cursor: pointer;
  font-size: 16px;
  margin-bottom: 1rem;
  transition: background 0.3s ease;
}

#demo-button:hover {
  background: #2980b9;
}

#demo-output {
  padding: 1rem;
  background: white;
  border: 1px solid #dee2e6;
  border-radius: 4px;
  min-height: 60px;
  font-family: monospace;
}
`

const markdownCSS = `.markdown-body {
  max-width: 800px;
  margin: 0 auto;
  background: white;
  padding: 2rem;
  border-radius: 8px;
  box-shadow: 0 2px 10px rgba(0,0,0,0.1);
}

.markdown-body h1, .markdown-body h2, .markdown-body h3,
.markdown-body h4, .markdown-body h5, .markdown-body h6 {
  color: #2c3e50;
  margin: 1.5rem 0 0.75rem;
  line-height: 1.25;
}

.markdown-body h1 { font-size: 2em; border-bottom: 2px solid #3498db; padding-bottom: 0.3rem; }
.markdown-body h2 { font-size: 1.5em; border-bottom: 1px solid #e9ecef; padding-bottom: 0.3rem; }
.markdown-body h3 { font-size: 1.25em; }
.markdown-body p { margin: 0 0 1rem; }
.markdown-body ul, .markdown-body ol { margin: 0 0 1rem 2rem; }
.markdown-body li + li { margin-top: 0.25rem; }

.markdown-body blockquote {
  margin: 0 0 1rem;
  padding: 0.5rem 1rem;
  color: #6a737d;
  border-left: 4px solid #dfe2e5;
  background: #f8f9fa;
}

.markdown-body code {
  font-family: SFMono-Regular, Consolas, 'Liberation Mono', Menlo, monospace;
  font-size: 0.9em;
  padding: 0.2em 0.4em;
  background: #f1f3f5;
  border-radius: 3px;
}

.markdown-body pre {
  margin: 0 0 1rem;
  padding: 1rem;
  overflow: auto;
  background: #2d2d2d;
  color: #f8f8f2;
  border-radius: 6px;
}

.markdown-body pre code {
  padding: 0;
  background: transparent;
  color: inherit;
}

.markdown-body table { border-collapse: collapse; margin: 0 0 1rem; }
.markdown-body th, .markdown-body td { border: 1px solid #dfe2e5; padding: 6px 13px; }
.markdown-body hr { border: 0; border-top: 1px solid #e9ecef; margin: 1.5rem 0; }
.markdown-body a { color: #3498db; }
`

const jsonCSS = `.json-viewer {
  font-family: SFMono-Regular, Consolas, 'Liberation Mono', Menlo, monospace;
  font-size: 14px;
  background: white;
  padding: 1rem;
  border-radius: 6px;
  border: 1px solid #e9ecef;
  overflow: auto;
}

.json-viewer ul {
  list-style: none;
  margin-left: 1.5rem;
}

.json-bracket { color: #6a737d; }
.json-key { color: #881391; }
.json-index { color: #6a737d; }
.json-string { color: #c41a16; }
.json-number { color: #1c00cf; }
.json-boolean { color: #0d22aa; font-weight: bold; }
.json-null { color: #808080; font-style: italic; }
.json-undefined { color: #b0b0b0; font-style: italic; }
`

const diagnosticCSS = `.preview-error, .json-error {
  background: #fff5f5;
  border: 1px solid #feb2b2;
  border-radius: 6px;
  padding: 1rem;
  margin-bottom: 1rem;
  color: #742a2a;
}

.preview-error pre, .json-error pre {
  white-space: pre-wrap;
  font-family: monospace;
  margin: 0.5rem 0;
}

.json-error ul { margin: 0.5rem 0 1rem 1.5rem; }
.json-error h3, .json-error h4 { margin: 0.5rem 0; }

.json-raw {
  white-space: pre-wrap;
  font-family: monospace;
  background: white;
  padding: 1rem;
  border: 1px solid #e9ecef;
  border-radius: 6px;
}
`
