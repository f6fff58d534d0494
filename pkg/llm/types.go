// Базовые типы - универсальный язык общения с моделями.
package llm

import (
	"fmt"
	"strings"
)

// Role — роль участника диалога.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// DefaultRole — роль для сообщений без явной роли (как в OpenAI chat API).
const DefaultRole = RoleUser

// Msg — одно сообщение диалога.
type Msg struct {
	Role    Role
	Content string
}

func (m Msg) String() string { return m.Content }

// Конструкторы-шорткаты

func SysMsg(content string) Msg       { return Msg{Role: RoleSystem, Content: content} }
func UserMsg(content string) Msg      { return Msg{Role: RoleUser, Content: content} }
func AssistantMsg(content string) Msg { return Msg{Role: RoleAssistant, Content: content} }

// RequestKind — вид запроса к провайдеру.
type RequestKind int

const (
	// KindChat — запрос к chat API (messages с ролями).
	KindChat RequestKind = iota
	// KindCompletion — запрос к completion API (плоский текст).
	KindCompletion
)

func (k RequestKind) String() string {
	if k == KindCompletion {
		return "completion"
	}
	return "chat"
}

// PrepareChatMessages конвертирует промпт в сообщения для chat API.
//
// Принимает string, Msg, []Msg, []string или []any из строк и Msg.
// Голая строка становится одним user-сообщением.
func PrepareChatMessages(prompt any) ([]Msg, error) {
	switch p := prompt.(type) {
	case string:
		return []Msg{{Role: DefaultRole, Content: p}}, nil
	case Msg:
		return []Msg{p}, nil
	case []Msg:
		return p, nil
	case []string:
		out := make([]Msg, len(p))
		for i, s := range p {
			out[i] = Msg{Role: DefaultRole, Content: s}
		}
		return out, nil
	case []any:
		out := make([]Msg, 0, len(p))
		for _, item := range p {
			msgs, err := PrepareChatMessages(item)
			if err != nil {
				return nil, err
			}
			out = append(out, msgs...)
		}
		return out, nil
	case fmt.Stringer:
		return []Msg{{Role: DefaultRole, Content: p.String()}}, nil
	default:
		return nil, fmt.Errorf("llm: unsupported prompt type %T", prompt)
	}
}

// PreparePrompt конвертирует промпт в плоский текст для completion API.
// Сообщения склеиваются переводами строк, роли отбрасываются.
func PreparePrompt(prompt any) (string, error) {
	msgs, err := PrepareChatMessages(prompt)
	if err != nil {
		return "", err
	}
	parts := make([]string, len(msgs))
	for i, m := range msgs {
		parts[i] = m.Content
	}
	return strings.Join(parts, "\n"), nil
}
