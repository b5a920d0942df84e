package digest

import "fmt"

// Placeholder — литерал, которым бэкенд помечает неопределенное среднее
// (agg по пустому множеству). Пробрасывается в отчет как есть.
const Placeholder = "------"

// Digest — неизменяемый снимок десяти метрик за одно отчетное окно.
// Все поля — уже отформатированный текст; пустая строка означает
// «значение отсутствует». Нулевое значение структуры — полностью пустой
// дайджест: рендер такого дайджеста дает отчет с пустыми ячейками,
// а не ошибку. Каждое поле независимо: отсутствие одного никогда
// не блокирует заполнение остальных.
type Digest struct {
	TotalRequests        string
	FailedRequests       string
	RequestsDuration     string
	TotalDependencies    string
	FailedDependencies   string
	DependenciesDuration string
	TotalViews           string
	TotalExceptions      string
	OverallAvailability  string
	AvailabilityDuration string
}

// String — компактная текстовая форма для plain-text подтверждения триггеру.
func (d Digest) String() string {
	return fmt.Sprintf(
		"requests: %s (failed: %s, avg %s ms); dependencies: %s (failed: %s, avg %s ms); "+
			"views: %s; exceptions: %s; availability: %s %% (avg %s ms)",
		d.TotalRequests, d.FailedRequests, d.RequestsDuration,
		d.TotalDependencies, d.FailedDependencies, d.DependenciesDuration,
		d.TotalViews, d.TotalExceptions,
		d.OverallAvailability, d.AvailabilityDuration,
	)
}
