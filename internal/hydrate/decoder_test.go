package hydrate

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type fileSettings struct {
	Path     string   `json:"path"`
	Format   string   `json:"format"`
	Optional bool     `json:"optional"`
	Dropins  []string `json:"dropins"`
	Retries  int      `json:"retries"`
}

func TestDecoderDecode(t *testing.T) {
	ctx := Context{Kind: "file", Name: "app"}

	tests := []struct {
		name      string
		opts      []DecoderOption[fileSettings]
		input     map[string]any
		want      fileSettings
		expectErr string
	}{
		{
			name:  "plain settings",
			input: map[string]any{"path": "/etc/app.yaml", "optional": true, "retries": 3},
			want:  fileSettings{Path: "/etc/app.yaml", Optional: true, Retries: 3},
		},
		{
			name: "nil settings with defaulting post hook",
			opts: []DecoderOption[fileSettings]{
				WithPostHook[fileSettings](func(_ Context, s *fileSettings) error {
					if s.Format == "" {
						s.Format = "json"
					}
					return nil
				}),
			},
			want: fileSettings{Format: "json"},
		},
		{
			name: "pre hook splits comma list",
			opts: []DecoderOption[fileSettings]{
				WithPreHook[fileSettings](func(_ Context, raw map[string]any) (map[string]any, error) {
					if list, ok := raw["dropins"].(string); ok {
						parts := strings.Split(list, ",")
						items := make([]any, len(parts))
						for i, part := range parts {
							items[i] = strings.TrimSpace(part)
						}
						raw["dropins"] = items
					}
					return raw, nil
				}),
			},
			input: map[string]any{"dropins": "a.yaml, b.yaml"},
			want:  fileSettings{Dropins: []string{"a.yaml", "b.yaml"}},
		},
		{
			name:  "unknown fields ignored by default",
			input: map[string]any{"path": "x", "bogus": 1},
			want:  fileSettings{Path: "x"},
		},
		{
			name:      "unknown fields rejected",
			opts:      []DecoderOption[fileSettings]{WithDisallowUnknownFields[fileSettings]()},
			input:     map[string]any{"path": "x", "bogus": 1},
			expectErr: "hydrate: decode file[app]",
		},
		{
			name: "post hook validation",
			opts: []DecoderOption[fileSettings]{
				WithPostHook[fileSettings](func(_ Context, s *fileSettings) error {
					if s.Path == "" {
						return errors.New("path is required")
					}
					return nil
				}),
			},
			input:     map[string]any{},
			expectErr: "path is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewDecoder(tt.opts...).Decode(ctx, tt.input)
			if tt.expectErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.expectErr) {
					t.Fatalf("expected error containing %q, got %v", tt.expectErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected decode error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("settings mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecoderDoesNotMutateInput(t *testing.T) {
	input := map[string]any{"path": "a"}
	decoder := NewDecoder(WithPreHook[fileSettings](func(_ Context, raw map[string]any) (map[string]any, error) {
		raw["path"] = "b"
		return raw, nil
	}))
	if _, err := decoder.Decode(Context{Kind: "file"}, input); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if input["path"] != "a" {
		t.Fatalf("expected caller settings untouched, got %v", input["path"])
	}
}

func TestContextString(t *testing.T) {
	if got := (Context{Kind: "env"}).String(); got != "env" {
		t.Fatalf("unexpected label %q", got)
	}
	if got := (Context{Kind: "env", Name: "prod"}).String(); got != "env[prod]" {
		t.Fatalf("unexpected label %q", got)
	}
}
