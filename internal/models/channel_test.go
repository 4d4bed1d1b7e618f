package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

func TestChannelWantsDailyDigest(t *testing.T) {
	tests := []struct {
		name    string
		channel Channel
		want    bool
	}{
		{
			name: "enabled and subscribed",
			channel: Channel{
				Enabled:       true,
				Notifications: datatypes.JSON(`{"daily_digest": true}`),
			},
			want: true,
		},
		{
			name: "subscribed but disabled",
			channel: Channel{
				Enabled:       false,
				Notifications: datatypes.JSON(`{"daily_digest": true}`),
			},
			want: false,
		},
		{
			name: "enabled but opted out",
			channel: Channel{
				Enabled:       true,
				Notifications: datatypes.JSON(`{"daily_digest": false}`),
			},
			want: false,
		},
		{
			name:    "no flags at all",
			channel: Channel{Enabled: true},
			want:    false,
		},
		{
			name: "malformed flags",
			channel: Channel{
				Enabled:       true,
				Notifications: datatypes.JSON(`not json`),
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.channel.WantsDailyDigest())
		})
	}
}
