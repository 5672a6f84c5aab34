// Harmoniq - Time-Aware Flow Playlists for Plex
// Copyright 2026 Harmoniq contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmoniq-app/harmoniq

package plex

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestTrackHistory(t *testing.T) {
	historyJSON := `{"MediaContainer":{"size":4,"Metadata":[
		{"ratingKey":"301","type":"track","viewedAt":1755100000},
		{"ratingKey":"999","type":"episode","viewedAt":1755090000},
		{"ratingKey":"302","type":"track","viewedAt":1755080000},
		{"ratingKey":"301","type":"track","viewedAt":1755070000}
	]}}`
	metadataJSON := `{"MediaContainer":{"size":2,"Metadata":[
		{"ratingKey":"301","type":"track","title":"Dawn","grandparentTitle":"Ayla",
		 "userRating":10,"viewCount":7,"Mood":[{"tag":"Calm"}]},
		{"ratingKey":"302","type":"track","title":"Mist","grandparentTitle":"Eno","viewCount":2}
	]}}`

	var historyQuery string
	mux := http.NewServeMux()
	mux.HandleFunc("/status/sessions/history/all", func(w http.ResponseWriter, r *http.Request) {
		historyQuery = r.URL.RawQuery
		fmt.Fprint(w, historyJSON)
	})
	mux.HandleFunc("/library/metadata/", func(w http.ResponseWriter, r *http.Request) {
		keys := strings.TrimPrefix(r.URL.Path, "/library/metadata/")
		if !strings.Contains(keys, "301") || !strings.Contains(keys, "302") {
			t.Errorf("metadata batch %q missing expected keys", keys)
		}
		fmt.Fprint(w, metadataJSON)
	})
	client := newTestClient(t, mux)

	entries, err := client.TrackHistory(context.Background(), 14)
	if err != nil {
		t.Fatalf("TrackHistory() error = %v", err)
	}

	if !strings.Contains(historyQuery, "viewedAt") {
		t.Errorf("history query %q missing viewedAt window filter", historyQuery)
	}

	// The episode is dropped; the repeated track keeps both plays.
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3: %+v", len(entries), entries)
	}
	if entries[0].Track.ID != "301" || entries[0].Track.Title != "Dawn" {
		t.Errorf("entries[0] = %+v, want enriched track 301", entries[0].Track)
	}
	if entries[0].Rating != 5 {
		t.Errorf("Rating = %g, want 5 (Plex 10 halved)", entries[0].Rating)
	}
	if entries[0].PlayedAt.Unix() != 1755100000 {
		t.Errorf("PlayedAt = %v", entries[0].PlayedAt)
	}
	if entries[2].Track.ID != "301" {
		t.Errorf("entries[2] = %+v, want the older play of 301", entries[2].Track)
	}
	for _, e := range entries {
		if e.Track.ID == "999" {
			t.Errorf("episode leaked into track history")
		}
	}
}

func TestTrackHistoryDeletedTrackSkipped(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/status/sessions/history/all", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"MediaContainer":{"size":1,"Metadata":[
			{"ratingKey":"404","type":"track","viewedAt":1755100000}]}}`)
	})
	mux.HandleFunc("/library/metadata/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"MediaContainer":{"size":0}}`)
	})
	client := newTestClient(t, mux)

	entries, err := client.TrackHistory(context.Background(), 14)
	if err != nil {
		t.Fatalf("TrackHistory() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("got %d entries, want 0 for deleted track", len(entries))
	}
}

func TestTrackHistoryEmpty(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/status/sessions/history/all", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"MediaContainer":{"size":0}}`)
	})
	client := newTestClient(t, mux)

	entries, err := client.TrackHistory(context.Background(), 14)
	if err != nil {
		t.Fatalf("TrackHistory() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("got %d entries, want 0", len(entries))
	}
}
