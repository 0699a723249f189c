package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{in: "09:00", want: 9 * 3600},
		{in: "09:00:00", want: 9 * 3600},
		{in: "9:30", want: 9*3600 + 30*60},
		{in: "23:59:59", want: 23*3600 + 59*60 + 59},
		{in: "00:00", want: 0},
		{in: "14:00:30", want: 14*3600 + 30},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "12", wantErr: true},
		{in: "12:00:00:00", wantErr: true},
		{in: "noon", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseTimeOfDay(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				require.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestTimeOfDayNormalization(t *testing.T) {
	t.Parallel()

	// "HH:MM" and "HH:MM:SS" forms of the same boundary must compare equal.
	a := MustTimeOfDay("09:00")
	b := MustTimeOfDay("09:00:00")
	require.Equal(t, a, b)
	require.Equal(t, "09:00:00", a.String())

	require.True(t, MustTimeOfDay("09:00").Before(MustTimeOfDay("09:30")))
	require.False(t, MustTimeOfDay("10:00").Before(MustTimeOfDay("10:00")))
}

func TestTimeOfDayJSON(t *testing.T) {
	t.Parallel()

	b, err := MustTimeOfDay("07:05").MarshalJSON()
	require.NoError(t, err)
	require.Equal(t, `"07:05:00"`, string(b))

	var v TimeOfDay
	require.NoError(t, v.UnmarshalJSON([]byte(`"18:30"`)))
	require.Equal(t, MustTimeOfDay("18:30"), v)

	require.Error(t, v.UnmarshalJSON([]byte(`"bad"`)))
}
