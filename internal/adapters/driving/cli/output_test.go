package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateOutput(t *testing.T) {
	for _, f := range []string{"text", "json", "yaml"} {
		assert.NoError(t, validateOutput(f), f)
	}
	for _, f := range []string{"", "xml", "JSON"} {
		assert.Error(t, validateOutput(f), f)
	}
}

func TestWriteStructured(t *testing.T) {
	v := map[string]any{"answer": "ok", "confidence": 0.5}

	tests := []struct {
		format string
		want   []string
	}{
		{format: "json", want: []string{`"answer": "ok"`, `"confidence": 0.5`}},
		{format: "yaml", want: []string{"answer: ok", "confidence: 0.5"}},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			buf := new(bytes.Buffer)
			require.NoError(t, writeStructured(buf, tt.format, v))
			for _, w := range tt.want {
				assert.Contains(t, buf.String(), w)
			}
		})
	}
}

func TestWriteStructured_RejectsText(t *testing.T) {
	err := writeStructured(new(bytes.Buffer), "csv", struct{}{})
	assert.Error(t, err)
}
