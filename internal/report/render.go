package report

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/xela07ax/insights-digest/internal/digest"
)

// reportTemplate — фиксированный трехсекционный документ. Отсутствующие
// поля дайджеста дают пустую ячейку при неизменной разметке — никаких
// "N/A" и никаких выпадающих строк. Суффиксы единиц (" ms", " %") живут
// в разметке, поэтому заглушка '------' печатается как "------ ms".
const reportTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body>
<h2>Daily telemetry digest &mdash; {{.Name}} &mdash; {{.Date}}</h2>
<h3>Requests</h3>
<table>
<tr><td>Total requests</td><td>{{.D.TotalRequests}}</td></tr>
<tr><td>Failed requests</td><td>{{.D.FailedRequests}}</td></tr>
<tr><td>Average response time</td><td>{{.D.RequestsDuration}} ms</td></tr>
</table>
<h3>Dependencies</h3>
<table>
<tr><td>Total dependencies</td><td>{{.D.TotalDependencies}}</td></tr>
<tr><td>Failed dependencies</td><td>{{.D.FailedDependencies}}</td></tr>
<tr><td>Average call time</td><td>{{.D.DependenciesDuration}} ms</td></tr>
</table>
<h3>Page views and exceptions</h3>
<table>
<tr><td>Total page views</td><td>{{.D.TotalViews}}</td></tr>
<tr><td>Total exceptions</td><td>{{.D.TotalExceptions}}</td></tr>
</table>
<h3>Availability</h3>
<table>
<tr><td>Overall availability</td><td>{{.D.OverallAvailability}} %</td></tr>
<tr><td>Average test duration</td><td>{{.D.AvailabilityDuration}} ms</td></tr>
</table>
</body>
</html>
`

type templateData struct {
	Name string
	Date string
	D    digest.Digest
}

// Renderer рендерит Digest в HTML-документ. Чистая функция: одинаковые
// входы дают байт-в-байт одинаковый документ. Имя приложения — внешний
// ввод; html/template экранирует его при подстановке.
type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() *Renderer {
	return &Renderer{
		tmpl: template.Must(template.New("digest").Parse(reportTemplate)),
	}
}

func (r *Renderer) Render(subjectName, dateLabel string, d digest.Digest) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, templateData{Name: subjectName, Date: dateLabel, D: d}); err != nil {
		return "", fmt.Errorf("report: render: %w", err)
	}
	return buf.String(), nil
}
