package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsJSON(t *testing.T) {
	assert.Equal(t, "{}", Options(nil).JSON())
	assert.Equal(t, `{"Color":"Gold","Size":"M"}`, Options{"Size": "M", "Color": "Gold"}.JSON())
}

func TestParseOptions(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Options
		wantErr bool
	}{
		{name: "flat object", input: `{"Size":"M"}`, want: Options{"Size": "M"}},
		{name: "empty object", input: `{}`, want: Options{}},
		{name: "number value", input: `{"Size":3}`, wantErr: true},
		{name: "nested value", input: `{"Size":{"a":"b"}}`, wantErr: true},
		{name: "array", input: `["M"]`, wantErr: true},
		{name: "null", input: `null`, wantErr: true},
		{name: "garbage", input: `size=M`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOptions(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidOptions))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOptionsRoundTrip(t *testing.T) {
	opts := Options{"Size": "L", "Material": "Silver"}
	parsed, err := ParseOptions(opts.JSON())
	require.NoError(t, err)
	assert.Equal(t, opts, parsed)
}

func TestParsePlatform(t *testing.T) {
	p, err := ParsePlatform("woocommerce")
	require.NoError(t, err)
	assert.Equal(t, PlatformWooCommerce, p)

	_, err = ParsePlatform("magento")
	assert.Error(t, err)
}

func TestImportResultCounters(t *testing.T) {
	r := &ImportResult{Total: 5, Imported: 4, Failed: 1}
	assert.Equal(t, 5, r.Processed())
	assert.False(t, r.Clean())

	r = &ImportResult{Total: 2, Imported: 2}
	assert.True(t, r.Clean())
}
