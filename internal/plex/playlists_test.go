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

// playlistServer fakes the playlist endpoints and records the calls made.
type playlistServer struct {
	existing []Playlist
	calls    []string

	createdTitle   string
	createdURI     string
	deletedKey     string
	summarySet     string
	summaryPlayKey string
}

func (s *playlistServer) handler(t *testing.T) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/identity", func(w http.ResponseWriter, r *http.Request) {
		s.calls = append(s.calls, "identity")
		fmt.Fprint(w, `{"MediaContainer":{"machineIdentifier":"machine-1"}}`)
	})
	mux.HandleFunc("/playlists", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			s.calls = append(s.calls, "list")
			fmt.Fprint(w, `{"MediaContainer":{"size":`)
			fmt.Fprintf(w, "%d", len(s.existing))
			fmt.Fprint(w, `,"Metadata":[`)
			for i, p := range s.existing {
				if i > 0 {
					fmt.Fprint(w, ",")
				}
				fmt.Fprintf(w, `{"ratingKey":%q,"title":%q}`, p.RatingKey, p.Title)
			}
			fmt.Fprint(w, `]}}`)
		case http.MethodPost:
			s.calls = append(s.calls, "create")
			s.createdTitle = r.URL.Query().Get("title")
			s.createdURI = r.URL.Query().Get("uri")
			fmt.Fprint(w, `{"MediaContainer":{"size":1,"Metadata":[{"ratingKey":"900","title":"new"}]}}`)
		default:
			t.Errorf("unexpected %s /playlists", r.Method)
		}
	})
	mux.HandleFunc("/playlists/", func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(r.URL.Path, "/playlists/")
		switch r.Method {
		case http.MethodDelete:
			s.calls = append(s.calls, "delete")
			s.deletedKey = key
			w.WriteHeader(http.StatusNoContent)
		case http.MethodPut:
			s.calls = append(s.calls, "summary")
			s.summaryPlayKey = key
			s.summarySet = r.URL.Query().Get("summary")
			w.WriteHeader(http.StatusOK)
		default:
			t.Errorf("unexpected %s /playlists/%s", r.Method, key)
		}
	})
	return mux
}

func TestUpsertPlaylistCreatesNew(t *testing.T) {
	srv := &playlistServer{}
	client := newTestClient(t, srv.handler(t))

	err := client.UpsertPlaylist(context.Background(), "Daily Flow", "Morning flow.", []string{"1", "2", "3"})
	if err != nil {
		t.Fatalf("UpsertPlaylist() error = %v", err)
	}

	if srv.deletedKey != "" {
		t.Errorf("deleted playlist %q, nothing should be deleted", srv.deletedKey)
	}
	if srv.createdTitle != "Daily Flow" {
		t.Errorf("created title = %q", srv.createdTitle)
	}
	wantURI := "server://machine-1/com.plexapp.plugins.library/library/metadata/1,2,3"
	if srv.createdURI != wantURI {
		t.Errorf("created uri = %q, want %q", srv.createdURI, wantURI)
	}
	if srv.summarySet != "Morning flow." || srv.summaryPlayKey != "900" {
		t.Errorf("summary %q set on %q", srv.summarySet, srv.summaryPlayKey)
	}
}

func TestUpsertPlaylistReplacesExisting(t *testing.T) {
	srv := &playlistServer{existing: []Playlist{
		{RatingKey: "55", Title: "Daily Flow"},
		{RatingKey: "56", Title: "Other"},
	}}
	client := newTestClient(t, srv.handler(t))

	err := client.UpsertPlaylist(context.Background(), "daily flow", "", []string{"9"})
	if err != nil {
		t.Fatalf("UpsertPlaylist() error = %v", err)
	}

	if srv.deletedKey != "55" {
		t.Errorf("deleted key = %q, want the existing playlist 55", srv.deletedKey)
	}
	for _, call := range srv.calls {
		if call == "summary" {
			t.Errorf("summary endpoint called with empty summary")
		}
	}
	if srv.createdURI == "" {
		t.Error("playlist was not recreated")
	}
}

func TestUpsertPlaylistRejectsEmptyTrackList(t *testing.T) {
	srv := &playlistServer{}
	client := newTestClient(t, srv.handler(t))

	if err := client.UpsertPlaylist(context.Background(), "Daily Flow", "", nil); err == nil {
		t.Fatal("UpsertPlaylist() succeeded with no tracks, want error")
	}
	if len(srv.calls) != 0 {
		t.Errorf("server saw calls %v, want none", srv.calls)
	}
}

func TestPlaylistURI(t *testing.T) {
	got := playlistURI("m-1", []string{"10", "20"})
	want := "server://m-1/com.plexapp.plugins.library/library/metadata/10,20"
	if got != want {
		t.Errorf("playlistURI() = %q, want %q", got, want)
	}
}
