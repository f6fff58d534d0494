package config

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Хелперы приведения значений опций. Строковые значения (окружение,
// .env файл) парсятся по типу поля, остальные (overrides) — type assert.

func asString(key string, value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", errorf("option %s: expected string, got %T", key, value)
	}
	return s, nil
}

func setString(dst *string, key string, value any) error {
	s, err := asString(key, value)
	if err != nil {
		return err
	}
	*dst = s
	return nil
}

func asBool(key string, value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		return parseBool(v), nil
	default:
		return false, errorf("option %s: expected bool, got %T", key, value)
	}
}

func setBool(dst *bool, key string, value any) error {
	b, err := asBool(key, value)
	if err != nil {
		return err
	}
	*dst = b
	return nil
}

func setInt(dst *int, key string, value any) error {
	switch v := value.(type) {
	case int:
		*dst = v
	case float64:
		*dst = int(v)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return wrapErr(err, "option %s: expected integer, got %q", key, v)
		}
		*dst = n
	default:
		return errorf("option %s: expected int, got %T", key, value)
	}
	return nil
}

func setFloat(dst *float64, key string, value any) error {
	switch v := value.(type) {
	case float64:
		*dst = v
	case int:
		*dst = float64(v)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return wrapErr(err, "option %s: expected number, got %q", key, v)
		}
		*dst = f
	default:
		return errorf("option %s: expected float, got %T", key, value)
	}
	return nil
}

// setMap принимает готовую map или JSON строку (формат для переменных
// окружения). Битый JSON — ConfigError.
//
// Поздний источник замещает значение опции целиком, а не по ключам:
// прецедент источников действует на уровне имени опции.
func setMap(dst *map[string]any, key string, value any) error {
	switch v := value.(type) {
	case map[string]any:
		replaced := make(map[string]any, len(v))
		for k, val := range v {
			replaced[k] = val
		}
		*dst = replaced
	case map[string]string:
		replaced := make(map[string]any, len(v))
		for k, val := range v {
			replaced[k] = val
		}
		*dst = replaced
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return nil
		}
		parsed := map[string]any{}
		if err := json.Unmarshal([]byte(trimmed), &parsed); err != nil {
			return wrapErr(err, "option %s: invalid JSON object %q", key, v)
		}
		return setMap(dst, key, parsed)
	default:
		return errorf("option %s: expected JSON object, got %T", key, value)
	}
	return nil
}
