package preview

import (
	"fmt"
	"regexp"
	"strings"
	"text/template"
)

// entryPriority is the fixed lookup order for the preview's root file.
var entryPriority = []string{"App.jsx", "App.js", "index.jsx", "index.js"}

// fallbackSource renders when the project has none of the entry files.
const fallbackSource = `import React from 'react';
export default function App() {
  return (
    <div style={{ padding: '20px', fontFamily: 'Arial, sans-serif' }}>
      <h1>Welcome to CipherStudio!</h1>
      <p>Start editing your React components to see them here.</p>
    </div>
  );
}`

// Sanitize strips ES module syntax so the source can run as a plain script
// inside the preview document: imports with a from clause (including
// multiline ones), bare side-effect imports, the "export default" prefix, and
// named export statements.
//
// This is a line-anchored textual pass, not a parser. It assumes imports and
// exports are top-level statements; string literals that happen to contain
// these keyword sequences at the start of a line will be mangled. A real AST
// transform can replace this function without touching anything else.
func Sanitize(src string) string {
	if src == "" {
		return ""
	}
	out := reImportFrom.ReplaceAllString(src, "")
	out = reImportBare.ReplaceAllString(out, "")
	out = reExportDefault.ReplaceAllString(out, "")
	out = reExportNamed.ReplaceAllString(out, "")
	return strings.TrimSpace(out)
}

var (
	reImportFrom    = regexp.MustCompile(`(?ms)^[ \t]*import\b.*?from[ \t]+['"].*?['"];?[ \t]*$`)
	reImportBare    = regexp.MustCompile(`(?m)^[ \t]*import[ \t]+['"].*?['"];?[ \t]*$`)
	reExportDefault = regexp.MustCompile(`(?m)^[ \t]*export[ \t]+default[ \t]+`)
	reExportNamed   = regexp.MustCompile(`(?ms)^[ \t]*export[ \t]+\{.*?\};?[ \t]*$`)
)

// Document is the self-contained preview artifact: a single HTML page that
// needs nothing from the project besides what is already inlined.
type Document struct {
	HTML        string
	EntryFile   string
	Fingerprint string
}

// EntrySource picks the preview's root source by fixed name priority and
// reports which file won. An empty name means the fallback snippet was used.
func EntrySource(files map[string]string) (name, src string) {
	for _, candidate := range entryPriority {
		if content, ok := files[candidate]; ok {
			return candidate, content
		}
	}
	return "", fallbackSource
}

// Render produces the preview document for the given file set. The embedded
// script mounts a component literally named App; a source that defines no
// such binding fails inside the document's own error boundary, which renders
// the thrown message into the mount element instead of leaving it blank.
func Render(files map[string]string, activeFile string) (*Document, error) {
	entry, src := EntrySource(files)

	var buf strings.Builder
	err := pageTemplate.Execute(&buf, pageData{AppCode: Sanitize(src)})
	if err != nil {
		return nil, fmt.Errorf("render preview: %w", err)
	}

	return &Document{
		HTML:        buf.String(),
		EntryFile:   entry,
		Fingerprint: Fingerprint(files, activeFile),
	}, nil
}

type pageData struct {
	AppCode string
}

// The runtime and transpiler are pinned by URL; the preview never loads
// project files over the network. text/template keeps the source verbatim,
// html/template would entity-escape it.
var pageTemplate = template.Must(template.New("preview").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1.0" />
  <title>CipherStudio Preview</title>
  <script crossorigin src="https://unpkg.com/react@18/umd/react.development.js"></script>
  <script crossorigin src="https://unpkg.com/react-dom@18/umd/react-dom.development.js"></script>
  <script src="https://unpkg.com/@babel/standalone/babel.min.js"></script>
  <style>
    body {
      margin: 0;
      padding: 0;
      font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', 'Roboto', sans-serif;
    }
    #root {
      width: 100%;
      min-height: 100vh;
    }
    .error {
      padding: 20px;
      background: #fee;
      border: 1px solid #fcc;
      border-radius: 4px;
      margin: 20px;
      color: #c33;
      white-space: pre-wrap;
    }
  </style>
</head>
<body>
  <div id="root">Loading...</div>

  <script type="text/babel" data-presets="react,env">
    const React = window.React;
    const ReactDOM = window.ReactDOM;

    try {
      {{.AppCode}}

      const root = ReactDOM.createRoot(document.getElementById('root'));
      root.render(React.createElement(App));
    } catch (error) {
      document.getElementById('root').innerHTML =
        '<div class="error"><h3>Error:</h3><pre>' + error.message + '</pre></div>';
    }
  </script>
</body>
</html>
`))
