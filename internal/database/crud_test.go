// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/parkwise/signage/internal/models"
)

func TestClientCRUD(t *testing.T) {
	db := setupTestDB(t)
	defer func() { checkNoError(t, db.Close()) }()
	ctx := context.Background()

	c := mustCreateClient(t, db, "Acme Parking", "acme")

	t.Run("defaults applied", func(t *testing.T) {
		checkStringEqual(t, "plan", c.Plan, models.PlanBasic)
		if c.Branding == nil {
			t.Error("branding should default when absent")
		}
	})

	t.Run("duplicate slug conflicts", func(t *testing.T) {
		dup := &models.Client{Name: "Other", Slug: "acme", Active: true}
		err := db.CreateClient(ctx, dup)
		if !errors.Is(err, ErrConflict) {
			t.Errorf("expected ErrConflict, got %v", err)
		}
	})

	t.Run("get and list", func(t *testing.T) {
		got, err := db.GetClient(ctx, c.ID)
		checkNoError(t, err)
		checkStringEqual(t, "name", got.Name, "Acme Parking")

		all, err := db.ListClients(ctx)
		checkNoError(t, err)
		// bootstrap + acme
		checkSliceLen(t, "clients", len(all), 2)
	})

	t.Run("update", func(t *testing.T) {
		c.Name = "Acme Parking Group"
		c.Plan = models.PlanPro
		checkNoError(t, db.UpdateClient(ctx, c))

		got, err := db.GetClient(ctx, c.ID)
		checkNoError(t, err)
		checkStringEqual(t, "name", got.Name, "Acme Parking Group")
		checkStringEqual(t, "plan", got.Plan, models.PlanPro)
	})

	t.Run("update missing row", func(t *testing.T) {
		ghost := &models.Client{ID: "nope", Name: "x", Slug: "ghost"}
		err := db.UpdateClient(ctx, ghost)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("bootstrap tenant undeletable", func(t *testing.T) {
		err := db.DeleteClient(ctx, models.BootstrapClientID)
		if !errors.Is(err, ErrForbidden) {
			t.Errorf("expected ErrForbidden, got %v", err)
		}
	})
}

func TestDeleteClient_CascadesToOwnedEntities(t *testing.T) {
	db := setupTestDB(t)
	defer func() { checkNoError(t, db.Close()) }()
	ctx := context.Background()

	c := mustCreateClient(t, db, "Cascade Co", "cascade")

	loc := &models.Location{ClientID: c.ID, Name: "Garage A", Timezone: "Europe/Amsterdam"}
	checkNoError(t, db.CreateLocation(ctx, loc))

	mustRegisterScreen(t, db, &models.ScreenRegistration{ID: "casc-screen-1", ClientID: c.ID})

	pl := &models.Playlist{ClientID: c.ID, Name: "Loop", Items: []models.PlaylistItem{
		{ContentType: models.ContentTypeURL, URL: "https://example.com", Duration: 30},
	}}
	checkNoError(t, db.CreatePlaylist(ctx, pl))

	sch := &models.Schedule{
		ClientID: c.ID, PlaylistID: pl.ID, ScreenTarget: models.ScheduleTargetAll,
		StartTime: "08:00", EndTime: "18:00", Days: []int{1, 2, 3, 4, 5}, Enabled: true,
	}
	checkNoError(t, db.CreateSchedule(ctx, sch))

	ann := &models.Announcement{ClientID: c.ID, Title: "Notice", Message: "Closed Sunday", Active: true}
	checkNoError(t, db.CreateAnnouncement(ctx, ann))

	sg := &models.SyncGroup{ClientID: c.ID, Name: "Wall", Mode: models.SyncModeMirror}
	checkNoError(t, db.CreateSyncGroup(ctx, sg))

	checkNoError(t, db.DeleteClient(ctx, c.ID))

	if _, err := db.GetClient(ctx, c.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("client should be gone, got %v", err)
	}
	if _, err := db.GetLocation(ctx, c.ID, loc.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("location should cascade, got %v", err)
	}
	if _, err := db.GetScreen(ctx, c.ID, "casc-screen-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("screen should cascade, got %v", err)
	}
	if _, err := db.GetPlaylist(ctx, c.ID, pl.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("playlist should cascade, got %v", err)
	}
	if _, err := db.GetSchedule(ctx, c.ID, sch.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("schedule should cascade, got %v", err)
	}
	if _, err := db.GetAnnouncement(ctx, c.ID, ann.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("announcement should cascade, got %v", err)
	}
	if _, err := db.GetSyncGroup(ctx, c.ID, sg.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("sync group should cascade, got %v", err)
	}
}

func TestUpsertScreen_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	defer func() { checkNoError(t, db.Close()) }()
	ctx := context.Background()

	first := mustRegisterScreen(t, db, &models.ScreenRegistration{
		ID:         "lobby-1",
		Name:       "Lobby Screen",
		Platform:   "webos",
		Resolution: "1920x1080",
	})
	checkStringEqual(t, "client_id", first.ClientID, models.BootstrapClientID)
	checkStringEqual(t, "status", first.Status, "online")

	// Admin assigns placement out of band.
	group := "entrance"
	_, err := db.UpdateScreen(ctx, models.BootstrapClientID, "lobby-1", &models.ScreenPatch{GroupID: &group})
	checkNoError(t, err)

	// Re-registration without placement must not clobber it.
	second := mustRegisterScreen(t, db, &models.ScreenRegistration{
		ID:       "lobby-1",
		Name:     "Lobby Screen",
		Platform: "tizen",
	})
	checkStringEqual(t, "group_id", second.GroupID, "entrance")
	checkStringEqual(t, "platform", second.Platform, "tizen")

	all, err := db.ListScreens(ctx, models.ScreenFilter{ClientID: models.BootstrapClientID})
	checkNoError(t, err)
	checkSliceLen(t, "screens", len(all), 1)
}

func TestListScreens_Filters(t *testing.T) {
	db := setupTestDB(t)
	defer func() { checkNoError(t, db.Close()) }()
	ctx := context.Background()

	c := mustCreateClient(t, db, "Filter Co", "filter")
	mustRegisterScreen(t, db, &models.ScreenRegistration{ID: "f-1", ClientID: c.ID, GroupID: "north", LocationID: "loc-1"})
	mustRegisterScreen(t, db, &models.ScreenRegistration{ID: "f-2", ClientID: c.ID, GroupID: "north"})
	mustRegisterScreen(t, db, &models.ScreenRegistration{ID: "f-3", ClientID: c.ID, GroupID: "south"})
	mustRegisterScreen(t, db, &models.ScreenRegistration{ID: "other", ClientID: models.BootstrapClientID})

	t.Run("by client", func(t *testing.T) {
		got, err := db.ListScreens(ctx, models.ScreenFilter{ClientID: c.ID})
		checkNoError(t, err)
		checkSliceLen(t, "screens", len(got), 3)
	})

	t.Run("by group", func(t *testing.T) {
		got, err := db.ListScreens(ctx, models.ScreenFilter{ClientID: c.ID, GroupID: "north"})
		checkNoError(t, err)
		checkSliceLen(t, "screens", len(got), 2)
	})

	t.Run("by location", func(t *testing.T) {
		got, err := db.ListScreens(ctx, models.ScreenFilter{ClientID: c.ID, LocationID: "loc-1"})
		checkNoError(t, err)
		checkSliceLen(t, "screens", len(got), 1)
		checkStringEqual(t, "id", got[0].ID, "f-1")
	})

	t.Run("all clients bypass", func(t *testing.T) {
		got, err := db.ListScreens(ctx, models.ScreenFilter{ClientID: c.ID, AllClients: true})
		checkNoError(t, err)
		checkSliceLen(t, "screens", len(got), 4)
	})

	t.Run("tenant isolation", func(t *testing.T) {
		if _, err := db.GetScreen(ctx, c.ID, "other"); !errors.Is(err, ErrNotFound) {
			t.Errorf("cross-tenant get should be NOT_FOUND, got %v", err)
		}
	})
}

func TestMarkScreensOffline(t *testing.T) {
	db := setupTestDB(t)
	defer func() { checkNoError(t, db.Close()) }()
	ctx := context.Background()

	mustRegisterScreen(t, db, &models.ScreenRegistration{ID: "stale-1"})
	mustRegisterScreen(t, db, &models.ScreenRegistration{ID: "fresh-1"})

	// Backdate one heartbeat past the cutoff.
	staleMS := time.Now().Add(-30 * time.Minute).UnixMilli()
	checkNoError(t, db.TouchScreen(ctx, "stale-1", staleMS))

	cutoff := time.Now().Add(-10 * time.Minute).UnixMilli()
	flipped, err := db.MarkScreensOffline(ctx, cutoff)
	checkNoError(t, err)
	checkSliceLen(t, "flipped", len(flipped), 1)
	checkStringEqual(t, "flipped id", flipped[0].ID, "stale-1")

	s, err := db.GetScreen(ctx, "", "stale-1")
	checkNoError(t, err)
	checkStringEqual(t, "status", s.Status, "offline")

	// A second scan with the same cutoff flips nothing.
	again, err := db.MarkScreensOffline(ctx, cutoff)
	checkNoError(t, err)
	checkSliceLen(t, "flipped again", len(again), 0)
}

func TestSyncGroupMembership(t *testing.T) {
	db := setupTestDB(t)
	defer func() { checkNoError(t, db.Close()) }()
	ctx := context.Background()

	g := &models.SyncGroup{ClientID: models.BootstrapClientID, Name: "Video Wall", Mode: models.SyncModeComplementary}
	checkNoError(t, db.CreateSyncGroup(ctx, g))

	mustRegisterScreen(t, db, &models.ScreenRegistration{ID: "wall-a"})
	mustRegisterScreen(t, db, &models.ScreenRegistration{ID: "wall-b"})
	mustRegisterScreen(t, db, &models.ScreenRegistration{ID: "wall-c"})

	checkNoError(t, db.AttachScreenToSyncGroup(ctx, models.BootstrapClientID, "wall-a", g.ID))
	checkNoError(t, db.AttachScreenToSyncGroup(ctx, models.BootstrapClientID, "wall-b", g.ID))
	checkNoError(t, db.AttachScreenToSyncGroup(ctx, models.BootstrapClientID, "wall-c", g.ID))

	t.Run("positions assigned in attach order", func(t *testing.T) {
		members, err := db.ListSyncGroupScreens(ctx, g.ID)
		checkNoError(t, err)
		checkSliceLen(t, "members", len(members), 3)
		checkStringEqual(t, "first member", members[0].ID, "wall-a")
		checkIntEqual(t, "first position", members[0].SyncPosition, 1)
		checkIntEqual(t, "last position", members[2].SyncPosition, 3)
	})

	t.Run("detach clears membership", func(t *testing.T) {
		checkNoError(t, db.DetachScreenFromSyncGroup(ctx, models.BootstrapClientID, "wall-b"))
		members, err := db.ListSyncGroupScreens(ctx, g.ID)
		checkNoError(t, err)
		checkSliceLen(t, "members", len(members), 2)

		s, err := db.GetScreen(ctx, "", "wall-b")
		checkNoError(t, err)
		checkStringEqual(t, "sync_group", s.SyncGroup, "")
		checkIntEqual(t, "sync_position", s.SyncPosition, 0)
	})

	t.Run("group delete detaches remaining members", func(t *testing.T) {
		checkNoError(t, db.DeleteSyncGroup(ctx, models.BootstrapClientID, g.ID))

		s, err := db.GetScreen(ctx, "", "wall-a")
		checkNoError(t, err)
		checkStringEqual(t, "sync_group after delete", s.SyncGroup, "")

		if _, err := db.GetSyncGroup(ctx, models.BootstrapClientID, g.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("group should be gone, got %v", err)
		}
	})
}

func TestPlaylistCRUD_ItemsRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	defer func() { checkNoError(t, db.Close()) }()
	ctx := context.Background()

	p := &models.Playlist{
		ClientID: models.BootstrapClientID,
		Name:     "Morning Loop",
		Loop:     true,
		Items: []models.PlaylistItem{
			{ContentType: models.ContentTypeWidget, Widget: "weather", Duration: 15, Config: map[string]interface{}{"units": "metric"}},
			{ContentType: models.ContentTypeURL, URL: "https://status.example.com", Duration: 30},
			{ContentType: models.ContentTypeVideo, ContentID: "promo.mp4", Duration: 45},
		},
	}
	checkNoError(t, db.CreatePlaylist(ctx, p))
	checkStringEqual(t, "transition default", p.Transition, "fade")

	got, err := db.GetPlaylist(ctx, models.BootstrapClientID, p.ID)
	checkNoError(t, err)
	checkSliceLen(t, "items", len(got.Items), 3)
	checkStringEqual(t, "item 0 widget", got.Items[0].Widget, "weather")
	checkIntEqual(t, "item 1 duration", got.Items[1].Duration, 30)
	if got.Items[0].Config["units"] != "metric" {
		t.Errorf("item config lost on round trip: %v", got.Items[0].Config)
	}

	t.Run("update reorders items", func(t *testing.T) {
		got.Items = []models.PlaylistItem{got.Items[2], got.Items[0]}
		checkNoError(t, db.UpdatePlaylist(ctx, got))

		after, err := db.GetPlaylist(ctx, models.BootstrapClientID, p.ID)
		checkNoError(t, err)
		checkSliceLen(t, "items", len(after.Items), 2)
		checkStringEqual(t, "item 0 content", after.Items[0].ContentID, "promo.mp4")
	})

	t.Run("delete", func(t *testing.T) {
		checkNoError(t, db.DeletePlaylist(ctx, models.BootstrapClientID, p.ID))
		if _, err := db.GetPlaylist(ctx, models.BootstrapClientID, p.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestListEnabledSchedules_Ordering(t *testing.T) {
	db := setupTestDB(t)
	defer func() { checkNoError(t, db.Close()) }()
	ctx := context.Background()

	pl := &models.Playlist{ClientID: models.BootstrapClientID, Name: "Any", Items: []models.PlaylistItem{
		{ContentType: models.ContentTypeURL, URL: "https://example.com", Duration: 10},
	}}
	checkNoError(t, db.CreatePlaylist(ctx, pl))

	mk := func(name string, priority int, enabled bool) *models.Schedule {
		s := &models.Schedule{
			ClientID: models.BootstrapClientID, Name: name, PlaylistID: pl.ID,
			ScreenTarget: models.ScheduleTargetAll, StartTime: "00:00", EndTime: "23:59",
			Days: []int{0, 1, 2, 3, 4, 5, 6}, Priority: priority, Enabled: enabled,
		}
		checkNoError(t, db.CreateSchedule(ctx, s))
		// Creation timestamps must differ for the tiebreak to be observable.
		time.Sleep(5 * time.Millisecond)
		return s
	}

	mk("low", 1, true)
	mk("high", 10, true)
	mk("disabled", 99, false)
	newest := mk("high-newest", 10, true)

	got, err := db.ListEnabledSchedules(ctx)
	checkNoError(t, err)
	checkSliceLen(t, "enabled schedules", len(got), 3)
	checkStringEqual(t, "winner", got[0].ID, newest.ID)
	checkStringEqual(t, "runner-up name", got[1].Name, "high")
	checkStringEqual(t, "last name", got[2].Name, "low")
	checkSliceLen(t, "days round trip", len(got[0].Days), 7)
}

func TestAnnouncementCRUD(t *testing.T) {
	db := setupTestDB(t)
	defer func() { checkNoError(t, db.Close()) }()
	ctx := context.Background()

	a := &models.Announcement{
		ClientID: models.BootstrapClientID,
		Title:    "Garage closed",
		Message:  "Level 2 closed for cleaning",
		Priority: models.AnnouncementPriorityHigh,
		Active:   true,
	}
	checkNoError(t, db.CreateAnnouncement(ctx, a))

	b := &models.Announcement{
		ClientID: models.BootstrapClientID,
		Title:    "Old notice",
		Message:  "Expired",
		Active:   false,
	}
	checkNoError(t, db.CreateAnnouncement(ctx, b))
	checkStringEqual(t, "priority default", b.Priority, models.AnnouncementPriorityNormal)

	active, err := db.ListAnnouncements(ctx, models.BootstrapClientID, true)
	checkNoError(t, err)
	checkSliceLen(t, "active", len(active), 1)
	checkStringEqual(t, "active title", active[0].Title, "Garage closed")

	all, err := db.ListAnnouncements(ctx, models.BootstrapClientID, false)
	checkNoError(t, err)
	checkSliceLen(t, "all", len(all), 2)

	a.Active = false
	checkNoError(t, db.UpdateAnnouncement(ctx, a))
	active, err = db.ListAnnouncements(ctx, models.BootstrapClientID, true)
	checkNoError(t, err)
	checkSliceLen(t, "active after deactivate", len(active), 0)

	checkNoError(t, db.DeleteAnnouncement(ctx, models.BootstrapClientID, a.ID))
	if _, err := db.GetAnnouncement(ctx, models.BootstrapClientID, a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestEventsFeed(t *testing.T) {
	db := setupTestDB(t)
	defer func() { checkNoError(t, db.Close()) }()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		checkNoError(t, db.InsertEvent(ctx, &models.Event{
			Type:     models.EventScreenOnline,
			ClientID: models.BootstrapClientID,
			Subject:  "screen-1",
			Payload:  map[string]interface{}{"seq": i},
		}))
	}
	checkNoError(t, db.InsertEvent(ctx, &models.Event{
		Type:     models.EventScreenOffline,
		ClientID: "other-tenant",
		Subject:  "screen-9",
	}))

	t.Run("list scoped", func(t *testing.T) {
		got, err := db.ListEvents(ctx, models.BootstrapClientID, 10)
		checkNoError(t, err)
		checkSliceLen(t, "events", len(got), 5)
	})

	t.Run("list all with limit", func(t *testing.T) {
		got, err := db.ListEvents(ctx, "", 3)
		checkNoError(t, err)
		checkSliceLen(t, "events", len(got), 3)
	})

	t.Run("prune", func(t *testing.T) {
		n, err := db.PruneEvents(ctx, time.Now().Add(time.Minute))
		checkNoError(t, err)
		if n != 6 {
			t.Errorf("expected 6 pruned, got %d", n)
		}
	})
}

func TestGetDashboardStats(t *testing.T) {
	db := setupTestDB(t)
	defer func() { checkNoError(t, db.Close()) }()
	ctx := context.Background()

	c := mustCreateClient(t, db, "Stats Co", "stats")
	checkNoError(t, db.CreateLocation(ctx, &models.Location{ClientID: c.ID, Name: "Site", Timezone: "UTC"}))
	mustRegisterScreen(t, db, &models.ScreenRegistration{ID: "st-1", ClientID: c.ID})
	mustRegisterScreen(t, db, &models.ScreenRegistration{ID: "st-2", ClientID: c.ID})
	checkNoError(t, db.SetScreenStatus(ctx, "st-2", "offline"))

	pl := &models.Playlist{ClientID: c.ID, Name: "P", Items: []models.PlaylistItem{
		{ContentType: models.ContentTypeURL, URL: "https://example.com", Duration: 10},
	}}
	checkNoError(t, db.CreatePlaylist(ctx, pl))
	checkNoError(t, db.CreateSchedule(ctx, &models.Schedule{
		ClientID: c.ID, PlaylistID: pl.ID, ScreenTarget: "all",
		StartTime: "08:00", EndTime: "17:00", Days: []int{1}, Enabled: true,
	}))
	checkNoError(t, db.CreateSchedule(ctx, &models.Schedule{
		ClientID: c.ID, PlaylistID: pl.ID, ScreenTarget: "all",
		StartTime: "08:00", EndTime: "17:00", Days: []int{2}, Enabled: false,
	}))

	stats, err := db.GetDashboardStats(ctx, c.ID)
	checkNoError(t, err)
	checkIntEqual(t, "locations", stats.Locations, 1)
	checkIntEqual(t, "screens total", stats.Screens.Total, 2)
	checkIntEqual(t, "screens online", stats.Screens.Online, 1)
	checkIntEqual(t, "screens offline", stats.Screens.Offline, 1)
	checkIntEqual(t, "playlists", stats.Playlists, 1)
	checkIntEqual(t, "schedules total", stats.Schedules.Total, 2)
	checkIntEqual(t, "schedules enabled", stats.Schedules.Enabled, 1)

	t.Run("all tenants", func(t *testing.T) {
		global, err := db.GetDashboardStats(ctx, "")
		checkNoError(t, err)
		checkIntEqual(t, "clients", global.Clients, 2) // bootstrap + stats co
	})
}

func TestSettingHelpers(t *testing.T) {
	db := setupTestDB(t)
	defer func() { checkNoError(t, db.Close()) }()
	ctx := context.Background()

	t.Run("int parse", func(t *testing.T) {
		got := db.GetSettingInt(ctx, models.SettingOfflineThresholdMinutes, 99)
		checkIntEqual(t, "offline threshold", got, 10)
	})

	t.Run("missing key falls back", func(t *testing.T) {
		got := db.GetSettingInt(ctx, "no_such_key", 42)
		checkIntEqual(t, "fallback", got, 42)
	})

	t.Run("non-numeric falls back", func(t *testing.T) {
		checkNoError(t, db.UpdateSettings(ctx, map[string]string{"weird": "abc"}))
		got := db.GetSettingInt(ctx, "weird", 7)
		checkIntEqual(t, "fallback", got, 7)
	})

	t.Run("unknown keys round trip", func(t *testing.T) {
		checkNoError(t, db.UpdateSettings(ctx, map[string]string{"custom_flag": "on"}))
		got, err := db.GetSetting(ctx, "custom_flag")
		checkNoError(t, err)
		checkStringEqual(t, "custom_flag", got, "on")
	})
}
