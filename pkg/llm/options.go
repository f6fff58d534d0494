// Package llm provides options pattern for request parameters.
//
// Options are resolved in two layers: LLM_DEFAULT_ARGS from the active
// configuration snapshot, then per-call functional options on top.
package llm

// Options holds resolved parameters for a single request.
type Options struct {
	// Model overrides the configured model name for this call.
	Model string

	// Temperature, nil means provider default.
	Temperature *float64

	// MaxTokens limits the response length, 0 means provider default.
	MaxTokens int

	// Kind forces chat or completion API. Nil — decided by the
	// configuration (CHAT_MODE or model-name heuristic).
	Kind *RequestKind

	// Args — passthrough provider arguments (top_p, seed, etc.).
	Args map[string]any

	// Callbacks enable streaming: each chunk is delivered to every
	// callback in registration order before the next chunk is read.
	Callbacks []Callback
}

// Streaming reports whether the call should use the streaming path.
func (o *Options) Streaming() bool { return len(o.Callbacks) > 0 }

// Option is a functional option for a single request.
type Option func(*Options)

// WithModel overrides the model for this call.
func WithModel(model string) Option {
	return func(o *Options) { o.Model = model }
}

// WithTemperature sets sampling temperature for this call.
func WithTemperature(t float64) Option {
	return func(o *Options) { o.Temperature = &t }
}

// WithMaxTokens limits the response length.
func WithMaxTokens(n int) Option {
	return func(o *Options) { o.MaxTokens = n }
}

// WithKind forces the request kind (chat vs completion).
func WithKind(k RequestKind) Option {
	return func(o *Options) { o.Kind = &k }
}

// WithArg sets an arbitrary provider argument.
func WithArg(name string, value any) Option {
	return func(o *Options) {
		if o.Args == nil {
			o.Args = map[string]any{}
		}
		o.Args[name] = value
	}
}

// WithCallback registers a streaming callback. May be used multiple
// times; callbacks run in registration order.
func WithCallback(cb Callback) Option {
	return func(o *Options) { o.Callbacks = append(o.Callbacks, cb) }
}

// BuildOptions resolves functional options over config defaults.
//
// defaultArgs come from LLM_DEFAULT_ARGS; recognized names (model,
// temperature, max_tokens) are lifted into typed fields, the rest stays
// in Args for provider passthrough.
func BuildOptions(defaultArgs map[string]any, opts ...Option) Options {
	o := Options{}
	for name, value := range defaultArgs {
		switch name {
		case "model":
			if s, ok := value.(string); ok {
				o.Model = s
			}
		case "temperature":
			if f, ok := toFloat(value); ok {
				o.Temperature = &f
			}
		case "max_tokens":
			if f, ok := toFloat(value); ok {
				o.MaxTokens = int(f)
			}
		default:
			if o.Args == nil {
				o.Args = map[string]any{}
			}
			o.Args[name] = value
		}
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case float32:
		return float64(n), true
	default:
		return 0, false
	}
}
