package aicore

import (
	"sync"
	"time"

	"github.com/ilkoid/aicore/pkg/llm"
)

// Metrics — счётчики запросов за измеряемый отрезок.
//
// Коллектор подписывается на before/after обработчики окружения и
// снимается вызовом Stop. Потокобезопасен: AskParallel пишет в него
// из нескольких горутин.
type Metrics struct {
	mu      sync.Mutex
	started time.Time

	ExecDuration     time.Duration
	TotalGenDuration time.Duration
	RequestsCount    int
	SuccRequests     int
	GenChars         int

	unsubBefore func()
	unsubAfter  func()
}

// CollectMetrics начинает сбор метрик по запросам этого окружения.
func (e *Env) CollectMetrics() *Metrics {
	m := &Metrics{started: time.Now()}
	m.unsubBefore = e.OnBeforeRequest(func(prompt any, opts *llm.Options) {
		m.mu.Lock()
		m.RequestsCount++
		m.mu.Unlock()
	})
	m.unsubAfter = e.OnAfterResponse(func(resp *llm.LLMResponse) {
		m.mu.Lock()
		m.SuccRequests++
		m.GenChars += len(resp.Text())
		m.TotalGenDuration += resp.GenDuration
		m.mu.Unlock()
	})
	return m
}

// Stop фиксирует длительность и отписывает коллектор от окружения.
func (m *Metrics) Stop() {
	m.mu.Lock()
	m.ExecDuration = time.Since(m.started)
	m.mu.Unlock()
	m.unsubBefore()
	m.unsubAfter()
}

// AvgGenDuration — средняя длительность генерации успешного запроса.
func (m *Metrics) AvgGenDuration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SuccRequests == 0 {
		return 0
	}
	return m.TotalGenDuration / time.Duration(m.SuccRequests)
}

// GenCharsSpeed — скорость генерации, символов в секунду.
func (m *Metrics) GenCharsSpeed() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	secs := m.TotalGenDuration.Seconds()
	if secs == 0 {
		secs = 1
	}
	chars := m.GenChars
	if chars == 0 {
		chars = 1
	}
	return float64(chars) / secs
}
