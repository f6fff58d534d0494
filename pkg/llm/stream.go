// Стриминг: синхронная доставка чанков зарегистрированным callback'ам.
package llm

// Callback вызывается для каждой порции текста при стриминге.
// Ненулевая ошибка прерывает стрим и поднимается до вызывающего —
// библиотека ошибки callback'ов не глотает.
type Callback func(chunk string) error

// StreamAccumulator собирает потоковый ответ.
//
// Каждый входящий чанк синхронно рассылается callback'ам в порядке
// регистрации до запроса следующего чанка у провайдера. Для одного
// стрима конкурентных вызовов callback'ов не бывает — всё едет на
// той же горутине, что читает поток.
type StreamAccumulator struct {
	callbacks []Callback
	buf       []byte
	finished  bool
}

// NewStreamAccumulator создаёт аккумулятор с набором callback'ов.
func NewStreamAccumulator(callbacks ...Callback) *StreamAccumulator {
	return &StreamAccumulator{callbacks: callbacks}
}

// Push добавляет чанк в буфер и рассылает его callback'ам.
// Пустые чанки пропускаются (Azure шлёт первый чанк без контента).
func (a *StreamAccumulator) Push(chunk string) error {
	if chunk == "" || a.finished {
		return nil
	}
	a.buf = append(a.buf, chunk...)
	for _, cb := range a.callbacks {
		if err := cb(chunk); err != nil {
			a.finished = true
			return err
		}
	}
	return nil
}

// Text возвращает накопленный текст.
func (a *StreamAccumulator) Text() string { return string(a.buf) }

// Finalize строит итоговый LLMResponse после конца стрима.
//
// Choices и Usage заполняются только здесь: до сигнала end-of-stream
// частичный ответ наружу не отдаётся. usage может быть nil.
func (a *StreamAccumulator) Finalize(raw any, usage *Usage, finishReason string) *LLMResponse {
	a.finished = true
	resp, _ := newResponse([]Choice{{
		Index:        0,
		Text:         string(a.buf),
		Role:         RoleAssistant,
		FinishReason: finishReason,
	}}, usage, raw)
	return resp
}

// CollectStream прокачивает весь стрим через аккумулятор.
//
// next отдаёт очередной чанк; done=true означает конец стрима.
// Ошибка next или callback'а прерывает стрим без частичного результата.
func CollectStream(next func() (chunk string, done bool, err error), callbacks ...Callback) (*LLMResponse, error) {
	acc := NewStreamAccumulator(callbacks...)
	for {
		chunk, done, err := next()
		if err != nil {
			return nil, err
		}
		if err := acc.Push(chunk); err != nil {
			return nil, err
		}
		if done {
			return acc.Finalize(nil, nil, ""), nil
		}
	}
}
