// Harmoniq - Time-Aware Flow Playlists for Plex
// Copyright 2026 Harmoniq contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmoniq-app/harmoniq

package config

import (
	"reflect"
	"testing"

	"github.com/harmoniq-app/harmoniq/internal/flow"
)

func TestParsePeriods(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		want    []flow.Period
		wantErr bool
	}{
		{
			name: "name and hour only",
			spec: "Morning:5;Night:22",
			want: []flow.Period{
				{Name: "Morning", StartHour: 5},
				{Name: "Night", StartHour: 22},
			},
		},
		{
			name: "moods and styles",
			spec: "Morning:5:Calm|Peaceful:Acoustic|Folk",
			want: []flow.Period{
				{Name: "Morning", StartHour: 5, Moods: []string{"Calm", "Peaceful"}, Styles: []string{"Acoustic", "Folk"}},
			},
		},
		{
			name: "moods without styles",
			spec: "Night:22:Moody",
			want: []flow.Period{
				{Name: "Night", StartHour: 22, Moods: []string{"Moody"}},
			},
		},
		{
			name: "whitespace and trailing semicolons tolerated",
			spec: " Morning : 5 ; ",
			want: []flow.Period{
				{Name: "Morning", StartHour: 5},
			},
		},
		{
			name: "empty tag segments dropped",
			spec: "Morning:5:Calm||Peaceful:",
			want: []flow.Period{
				{Name: "Morning", StartHour: 5, Moods: []string{"Calm", "Peaceful"}},
			},
		},
		{name: "missing hour", spec: "Morning", wantErr: true},
		{name: "non-numeric hour", spec: "Morning:five", wantErr: true},
		{name: "empty name", spec: ":5", wantErr: true},
		{name: "too many segments", spec: "Morning:5:Calm:Folk:Extra", wantErr: true},
		{name: "empty spec", spec: "", wantErr: true},
		{name: "only separators", spec: ";;", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePeriods(tt.spec)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePeriods(%q) error = %v, wantErr %v", tt.spec, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParsePeriods(%q) = %+v, want %+v", tt.spec, got, tt.want)
			}
		})
	}
}
