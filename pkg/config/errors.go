package config

import "fmt"

// ConfigError — фатальная ошибка конфигурации.
//
// Возникает при неизвестной опции, битом .env файле или невалидной
// комбинации настроек. Никогда не ретраится: Resolve возвращает ошибку,
// предыдущий снапшот остаётся активным.
type ConfigError struct {
	Msg string
	Err error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return "config: " + e.Msg + ": " + e.Err.Error()
	}
	return "config: " + e.Msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

func errorf(format string, args ...any) *ConfigError {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}

func wrapErr(err error, format string, args ...any) *ConfigError {
	return &ConfigError{Msg: fmt.Sprintf(format, args...), Err: err}
}
