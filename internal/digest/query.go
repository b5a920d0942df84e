package digest

import (
	"fmt"
	"strings"
)

// DefaultFilterName подставляется вместо пустого имени фильтра,
// чтобы секция доступности не получила пустой startswith-литерал.
const DefaultFilterName = "availability-check"

// queryText — фиксированный аналитический запрос: пять коррелированных
// суб-агрегаций за суточное окно, сшитых по константному ключу Row, так что
// на выходе всегда ровно одна строка. NaN-средние (деление по пустому
// множеству) заменяются литералом '------' прямо на стороне бэкенда.
// Доступность — среднее индикатора успеха, масштабированное в проценты
// и усеченное до двух знаков. Единственный параметр — фильтр имени теста.
const queryText = `requests
| where timestamp > ago(1d)
| summarize Row = 1, TotalRequests = sum(itemCount), FailedRequests = sumif(itemCount, success == false), RequestsDuration = iff(isnan(avg(duration)), '------', tostring(toint(avg(duration) * 100) / 100.0))
| join kind=inner (
    dependencies
    | where timestamp > ago(1d)
    | summarize Row = 1, TotalDependencies = sum(itemCount), FailedDependencies = sumif(itemCount, success == false), DependenciesDuration = iff(isnan(avg(duration)), '------', tostring(toint(avg(duration) * 100) / 100.0))
) on Row
| join kind=inner (
    pageViews
    | where timestamp > ago(1d)
    | summarize Row = 1, TotalViews = sum(itemCount)
) on Row
| join kind=inner (
    exceptions
    | where timestamp > ago(1d)
    | summarize Row = 1, TotalExceptions = count()
) on Row
| join kind=inner (
    availabilityResults
    | where timestamp > ago(1d)
    | where name startswith '%s'
    | summarize Row = 1, OverallAvailability = tostring(toint(avg(todouble(success)) * 10000) / 100.0), AvailabilityDuration = iff(isnan(avg(duration)), '------', tostring(toint(avg(duration) * 100) / 100.0))
) on Row
| project TotalRequests, FailedRequests, RequestsDuration, TotalDependencies, FailedDependencies, DependenciesDuration, TotalViews, TotalExceptions, OverallAvailability, AvailabilityDuration`

// BuildQuery собирает текст запроса для заданного фильтра имени.
// Чистая функция: одинаковый вход — байт-в-байт одинаковый запрос.
// Одинарные кавычки в имени удваиваются, чтобы кавычка не могла закрыть
// строковый литерал фильтра; остального экранирования нет — триггер
// доступен единственному доверенному вызывающему.
func BuildQuery(name string) string {
	if name == "" {
		name = DefaultFilterName
	}
	name = strings.ReplaceAll(name, "'", "''")
	return fmt.Sprintf(queryText, name)
}
