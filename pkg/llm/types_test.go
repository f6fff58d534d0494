package llm

import "testing"

func TestPrepareChatMessages(t *testing.T) {
	tests := []struct {
		name   string
		prompt any
		want   []Msg
	}{
		{
			name:   "plain string",
			prompt: "hello",
			want:   []Msg{{Role: RoleUser, Content: "hello"}},
		},
		{
			name:   "single msg",
			prompt: SysMsg("be brief"),
			want:   []Msg{{Role: RoleSystem, Content: "be brief"}},
		},
		{
			name:   "msg slice",
			prompt: []Msg{SysMsg("s"), UserMsg("u")},
			want:   []Msg{{Role: RoleSystem, Content: "s"}, {Role: RoleUser, Content: "u"}},
		},
		{
			name:   "string slice",
			prompt: []string{"a", "b"},
			want:   []Msg{{Role: RoleUser, Content: "a"}, {Role: RoleUser, Content: "b"}},
		},
		{
			name:   "mixed slice",
			prompt: []any{SysMsg("s"), "raw"},
			want:   []Msg{{Role: RoleSystem, Content: "s"}, {Role: RoleUser, Content: "raw"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PrepareChatMessages(tt.prompt)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d messages, got %d", len(tt.want), len(got))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("message #%d: expected %+v, got %+v", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestPrepareChatMessages_Unsupported(t *testing.T) {
	if _, err := PrepareChatMessages(struct{}{}); err == nil {
		t.Fatal("expected error for unsupported prompt type")
	}
}

func TestPreparePrompt(t *testing.T) {
	got, err := PreparePrompt([]any{SysMsg("line1"), "line2"})
	if err != nil {
		t.Fatal(err)
	}
	if got != "line1\nline2" {
		t.Errorf("unexpected prompt: %q", got)
	}
}

func TestBuildOptions(t *testing.T) {
	defaults := map[string]any{
		"model":       "gpt-4o",
		"temperature": 0.3,
		"max_tokens":  256,
		"top_p":       0.9,
	}

	opts := BuildOptions(defaults, WithModel("override"), WithCallback(func(string) error { return nil }))

	if opts.Model != "override" {
		t.Errorf("call option must win: %q", opts.Model)
	}
	if opts.Temperature == nil || *opts.Temperature != 0.3 {
		t.Errorf("temperature lost: %+v", opts.Temperature)
	}
	if opts.MaxTokens != 256 {
		t.Errorf("max_tokens lost: %d", opts.MaxTokens)
	}
	if opts.Args["top_p"] != 0.9 {
		t.Errorf("passthrough arg lost: %+v", opts.Args)
	}
	if !opts.Streaming() {
		t.Error("callback should enable streaming")
	}
}
