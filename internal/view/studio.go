package view

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"

	"github.com/a-h/templ"
	"github.com/msomdec/sordb/internal/domain"
)

// StudioPage renders the embeddable SQL console for one database. The page
// itself is served without authentication; every query it issues carries the
// API key the operator types into the console.
func StudioPage(name string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		queryURL := "/db/" + url.PathEscape(name) + "/studio/query"
		_, err := fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>studio: %s</title>
<script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar@v1.0.0/bundles/datastar.js"></script>
<style>
body { font-family: ui-monospace, monospace; margin: 1rem; }
textarea { width: 100%%; height: 8rem; }
table { border-collapse: collapse; margin-top: 1rem; }
td, th { border: 1px solid #999; padding: 0.25rem 0.5rem; }
.error { color: #b00; }
</style>
</head>
<body data-signals="{apikey: '', sql: ''}">
<h1>%s</h1>
<input type="password" data-bind-apikey placeholder="API key">
<textarea data-bind-sql placeholder="SELECT ..."></textarea>
<button data-on-click="@post('%s', {headers: {'X-API-Key': $apikey}})">Run</button>
<div id="studio-result"></div>
</body>
</html>`, templ.EscapeString(name), templ.EscapeString(name), templ.EscapeString(queryURL))
		return err
	})
}

// StudioResult renders a query outcome as a fragment patched into the
// console's result region.
func StudioResult(result *domain.QueryResult, execErr error) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if execErr != nil {
			_, err := fmt.Fprintf(w, `<p class="error">%s</p>`, templ.EscapeString(execErr.Error()))
			return err
		}

		if len(result.Columns) == 0 {
			_, err := fmt.Fprintf(w, `<p>%d row(s) written</p>`, result.RowsWritten)
			return err
		}

		if _, err := io.WriteString(w, "<table><thead><tr>"); err != nil {
			return err
		}
		for _, c := range result.Columns {
			if _, err := fmt.Fprintf(w, "<th>%s</th>", templ.EscapeString(c)); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, "</tr></thead><tbody>"); err != nil {
			return err
		}
		for _, row := range result.Rows {
			if _, err := io.WriteString(w, "<tr>"); err != nil {
				return err
			}
			for _, v := range row {
				if _, err := fmt.Fprintf(w, "<td>%s</td>", templ.EscapeString(valueString(v))); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, "</tr>"); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "</tbody></table>")
		return err
	})
}

func valueString(v domain.Value) string {
	switch v.Kind() {
	case domain.KindInteger:
		return strconv.FormatInt(v.Int64(), 10)
	case domain.KindFloat:
		return strconv.FormatFloat(v.Float64(), 'g', -1, 64)
	case domain.KindText:
		return v.Text()
	case domain.KindBlob:
		return fmt.Sprintf("<blob %d bytes>", len(v.Blob()))
	default:
		return "NULL"
	}
}
