package pipeline

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopAction(ctx context.Context, log io.Writer) error { return nil }
func noopValidator(ctx context.Context) error             { return nil }

func testStage(key string) Stage {
	return Stage{Key: key, Title: key, Action: noopAction, Validate: noopValidator}
}

func TestNewRegistry(t *testing.T) {
	tests := map[string]struct {
		stages  []Stage
		wantErr string
	}{
		"valid ordered stages": {
			stages: []Stage{testStage("a"), testStage("b"), testStage("c")},
		},
		"empty key rejected": {
			stages:  []Stage{testStage("a"), {Title: "b", Action: noopAction, Validate: noopValidator}},
			wantErr: "has no key",
		},
		"duplicate key rejected": {
			stages:  []Stage{testStage("a"), testStage("a")},
			wantErr: "duplicate stage key",
		},
		"missing action rejected": {
			stages:  []Stage{{Key: "a", Title: "a", Validate: noopValidator}},
			wantErr: "missing action or validator",
		},
		"missing validator rejected": {
			stages:  []Stage{{Key: "a", Title: "a", Action: noopAction}},
			wantErr: "missing action or validator",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			reg, err := NewRegistry(tc.stages)
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, reg.Stages(), len(tc.stages))
		})
	}
}

func TestRegistryLookup(t *testing.T) {
	reg, err := NewRegistry([]Stage{testStage("a"), testStage("b"), testStage("c")})
	require.NoError(t, err)

	st, ok := reg.Get("b")
	require.True(t, ok)
	assert.Equal(t, "b", st.Key)

	_, ok = reg.Get("missing")
	assert.False(t, ok)

	i, ok := reg.Index("c")
	require.True(t, ok)
	assert.Equal(t, 2, i)

	assert.Equal(t, []string{"a", "b", "c"}, reg.Keys())
}

func TestRegistryDownstream(t *testing.T) {
	reg, err := NewRegistry([]Stage{
		testStage("a"), testStage("b"), testStage("c"), testStage("d"),
	})
	require.NoError(t, err)

	tests := map[string]struct {
		key  string
		want []string
	}{
		"first stage has all others downstream": {key: "a", want: []string{"b", "c", "d"}},
		"middle stage":                          {key: "b", want: []string{"c", "d"}},
		"last stage has none":                   {key: "d", want: []string{}},
		"unknown key yields nil":                {key: "x", want: nil},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got := reg.Downstream(tc.key)
			keys := make([]string, 0, len(got))
			for _, st := range got {
				keys = append(keys, st.Key)
			}
			if tc.want == nil {
				assert.Nil(t, got)
				return
			}
			assert.Equal(t, tc.want, keys)
		})
	}
}
