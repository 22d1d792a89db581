package loader

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDate(t *testing.T) {
	jan5 := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		input string
		want  time.Time
		ok    bool
	}{
		{"iso date", "2024-01-05", jan5, true},
		{"iso datetime", "2024-01-05 16:00:00", jan5, true},
		{"day first with time", "05/01/2024 00:00:00", jan5, true},
		{"day first unpadded", "5/1/2024 09:30:00", jan5, true},
		{"month first", "1/5/2024", jan5, true},
		{"excel serial", "45296", jan5, true},
		{"excel serial with fraction", "45296.75", jan5, true},
		{"serial too large", "200000", time.Time{}, false},
		{"impossible day", "2/30/2024", time.Time{}, false},
		{"garbage", "yesterday", time.Time{}, false},
		{"empty", "  ", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, tt.want.Equal(got), "got %s", got)
			}
		})
	}
}
