package benchmark

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSplit(t *testing.T) {
	tests := []struct {
		in      string
		want    Split
		wantErr bool
	}{
		{in: "1:2", want: Split{Start: 1, End: 2}},
		{in: "0:500", want: Split{Start: 0, End: 500}},
		{in: " 10 : 20 ", want: Split{Start: 10, End: 20}},
		{in: "1:300", want: Split{Start: 1, End: 300}},
		{in: "2:2", wantErr: true},
		{in: "3:1", wantErr: true},
		{in: "-1:2", wantErr: true},
		{in: "0:501", wantErr: true},
		{in: "12", wantErr: true},
		{in: "a:b", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSplit(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.End-tt.want.Start, got.Len())
		})
	}
}

func TestResolveSplit(t *testing.T) {
	s, err := ResolveSplit("1:3", []string{"django__django-11099"})
	require.NoError(t, err)
	assert.Equal(t, "0:500", s.String())

	s, err = ResolveSplit("", nil)
	require.NoError(t, err)
	assert.Equal(t, Split{Start: 1, End: 2}, s)

	_, err = ResolveSplit("nope", nil)
	require.Error(t, err)
}

func TestParseInstanceIDs(t *testing.T) {
	assert.Equal(t, []string{"a__a-1", "b__b-2"}, ParseInstanceIDs(" a__a-1, ,b__b-2 ,"))
	assert.Empty(t, ParseInstanceIDs(""))
}
