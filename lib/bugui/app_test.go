// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bugui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/bureau-foundation/bugdesk/lib/bugcache"
	"github.com/bureau-foundation/bugdesk/lib/router"
	"github.com/bureau-foundation/bugdesk/lib/secret"
	"github.com/bureau-foundation/bugdesk/lib/signal"
	"github.com/bureau-foundation/bugdesk/tracker"
)

func TestStartup(t *testing.T) {
	t.Run("no persisted session shows login", func(t *testing.T) {
		h := newHarness(t, "")
		if h.model.State() != router.Loading {
			t.Fatalf("initial state = %s, want loading", h.model.State())
		}
		if _, ok := h.model.screen.(*loadingScreen); !ok {
			t.Fatalf("initial screen = %T", h.model.screen)
		}

		h.start(t)
		if got := h.model.State().String(); got != "unauthenticated:login" {
			t.Fatalf("state = %s", got)
		}
		if _, ok := h.model.screen.(*loginScreen); !ok {
			t.Fatalf("screen = %T, want login", h.model.screen)
		}
	})

	t.Run("restored session loads bugs", func(t *testing.T) {
		h := newHarness(t, testToken)
		h.signIn(t)
		if got := h.model.State().String(); got != "authenticated:dashboard" {
			t.Fatalf("state = %s", got)
		}
		if h.config.Bugs.Len() != 2 {
			t.Fatalf("bugs loaded = %d, want 2", h.config.Bugs.Len())
		}
		view := ansi.Strip(h.model.View())
		for _, want := range []string{"Welcome back, Ada Lovelace", "Login page broken", "Recent bugs"} {
			if !strings.Contains(view, want) {
				t.Errorf("dashboard missing %q:\n%s", want, view)
			}
		}
	})

	t.Run("start view replaces the dashboard once", func(t *testing.T) {
		h := newHarness(t, testToken)
		h.model.startView = router.ViewBugs
		h.signIn(t)
		if got := h.model.State().String(); got != "authenticated:bugs" {
			t.Fatalf("state = %s, want authenticated:bugs", got)
		}
		if _, ok := h.model.screen.(*bugsScreen); !ok {
			t.Fatalf("screen = %T, want bug list", h.model.screen)
		}

		h.press(runes("L"))
		password, err := secret.NewFromString(testPassword)
		if err != nil {
			t.Fatalf("NewFromString: %v", err)
		}
		defer password.Close()
		if _, err := h.manager.Login(context.Background(), testEmail, password); err != nil {
			t.Fatalf("Login: %v", err)
		}
		h.model.Update(routeChangedMsg{})
		if got := h.model.State().String(); got != "authenticated:dashboard" {
			t.Fatalf("state after second sign-in = %s, want authenticated:dashboard", got)
		}
	})
}

func TestLoginForm(t *testing.T) {
	t.Run("wrong password shows the server's reason", func(t *testing.T) {
		h := newHarness(t, "")
		h.start(t)
		cmd := h.press(runes(testEmail), tabKey, runes("nope"), enterKey)
		result, ok := awaitMsg[loginResultMsg](cmd)
		if !ok {
			t.Fatal("no login result")
		}
		h.model.Update(result)

		login := h.model.screen.(*loginScreen)
		if login.err != "Invalid credentials" {
			t.Errorf("err = %q", login.err)
		}
		if login.secret.value() != "" {
			t.Error("password field not cleared after failure")
		}
		if h.model.State().Phase != router.PhaseUnauthenticated {
			t.Errorf("state = %s", h.model.State())
		}
	})

	t.Run("success routes to the dashboard", func(t *testing.T) {
		h := newHarness(t, "")
		h.start(t)
		cmd := h.press(runes(testEmail), tabKey, runes(testPassword), enterKey)
		result, ok := awaitMsg[loginResultMsg](cmd)
		if !ok || result.err != nil {
			t.Fatalf("login result = %+v, %v", result, ok)
		}
		h.model.Update(result)
		h.model.Update(routeChangedMsg{})
		if got := h.model.State().String(); got != "authenticated:dashboard" {
			t.Fatalf("state = %s", got)
		}
	})

	t.Run("empty fields are refused locally", func(t *testing.T) {
		h := newHarness(t, "")
		h.start(t)
		if cmd := h.press(tabKey, enterKey); cmd != nil {
			if _, ok := awaitMsg[loginResultMsg](cmd); ok {
				t.Fatal("login attempted with empty fields")
			}
		}
		if got := h.model.screen.(*loginScreen).err; got != "Email and password are required" {
			t.Errorf("err = %q", got)
		}
	})

	t.Run("toggle to registration", func(t *testing.T) {
		h := newHarness(t, "")
		h.start(t)
		cmd := h.press(tea.KeyMsg{Type: tea.KeyCtrlT})
		msg, ok := awaitMsg[toggleAuthMsg](cmd)
		if !ok {
			t.Fatal("no toggle message")
		}
		h.model.Update(msg)
		if _, ok := h.model.screen.(*registerScreen); !ok {
			t.Fatalf("screen = %T, want register", h.model.screen)
		}
	})
}

func TestHeaderSearch(t *testing.T) {
	t.Run("query is handed to the bug list", func(t *testing.T) {
		h := newHarness(t, testToken)
		h.signIn(t)

		h.press(tea.KeyMsg{Type: tea.KeyCtrlF}, runes("mobile"), enterKey)
		if h.model.State().View != router.ViewBugs {
			t.Fatalf("state = %s, want bugs", h.model.State())
		}
		list, ok := h.model.screen.(*bugsScreen)
		if !ok {
			t.Fatalf("screen = %T", h.model.screen)
		}
		if list.table.filter.Query != "mobile" {
			t.Errorf("query = %q", list.table.filter.Query)
		}
		if len(list.table.rows) != 1 || list.table.rows[0].ID != "b2" {
			t.Errorf("rows = %+v", list.table.rows)
		}
		if _, ok := signal.ReadAndClear(h.config.Signals, signal.GlobalSearchQuery); ok {
			t.Error("search query left in the channel after the list consumed it")
		}
	})

	t.Run("empty query only navigates", func(t *testing.T) {
		h := newHarness(t, testToken)
		h.signIn(t)

		h.press(tea.KeyMsg{Type: tea.KeyCtrlF}, runes("   "), enterKey)
		if h.model.State().View != router.ViewBugs {
			t.Fatalf("state = %s, want bugs", h.model.State())
		}
		if list := h.model.screen.(*bugsScreen); list.table.filter.Query != "" || len(list.table.rows) != 2 {
			t.Errorf("query = %q rows = %d", list.table.filter.Query, len(list.table.rows))
		}
	})

	t.Run("escape cancels", func(t *testing.T) {
		h := newHarness(t, testToken)
		h.signIn(t)
		h.press(tea.KeyMsg{Type: tea.KeyCtrlF}, runes("login"), escKey)
		if h.model.State().View != router.ViewDashboard || h.model.searching {
			t.Errorf("state = %s searching = %v", h.model.State(), h.model.searching)
		}
	})
}

func TestProjectsHandOff(t *testing.T) {
	openProjects := func(t *testing.T) *harness {
		t.Helper()
		h := newHarness(t, testToken)
		h.signIn(t)
		cmd := h.press(runes("4"))
		loaded, ok := awaitMsg[projectsLoadedMsg](cmd)
		if !ok {
			t.Fatal("projects screen did not load the catalog")
		}
		h.model.Update(loaded)
		return h
	}

	t.Run("open shows the project's bugs", func(t *testing.T) {
		h := openProjects(t)
		nav, ok := awaitMsg[navigateMsg](h.press(enterKey))
		if !ok {
			t.Fatal("open did not navigate")
		}
		_, cmd := h.model.Update(nav)
		if h.model.State().View != router.ViewProjectBugs {
			t.Fatalf("state = %s", h.model.State())
		}
		screen := h.model.screen.(*projectBugsScreen)
		if !screen.found || screen.project.ID != "p1" {
			t.Fatalf("project = %+v found = %v", screen.project, screen.found)
		}

		loaded, ok := awaitMsg[bugsLoadedMsg](cmd)
		if !ok || loaded.scope != bugcache.ProjectScope("p1") {
			t.Fatalf("load = %+v, %v", loaded, ok)
		}
		h.model.Update(loaded)
		if h.config.ProjectBugs.Len() != 1 {
			t.Errorf("project bugs = %d, want 1", h.config.ProjectBugs.Len())
		}
		if !strings.Contains(ansi.Strip(h.model.View()), "Web Portal") {
			t.Error("project name not shown")
		}

		nav, ok = awaitMsg[navigateMsg](h.press(escKey))
		if !ok {
			t.Fatal("Esc did not navigate")
		}
		h.model.Update(nav)
		if h.model.State().View != router.ViewProjects {
			t.Fatalf("state = %s", h.model.State())
		}
		if h.config.ProjectBugs.Len() != 0 {
			t.Error("project collection not retired on leaving")
		}
	})

	t.Run("project bugs without a hand-off", func(t *testing.T) {
		h := newHarness(t, testToken)
		h.signIn(t)
		h.model.Update(navigateMsg{view: router.ViewProjectBugs})
		screen := h.model.screen.(*projectBugsScreen)
		if screen.found {
			t.Fatal("found a project with nothing handed over")
		}
		if !strings.Contains(ansi.Strip(h.model.View()), "No project selected") {
			t.Error("empty state not shown")
		}
	})

	t.Run("view bugs filters the full list until cleared", func(t *testing.T) {
		h := openProjects(t)
		nav, ok := awaitMsg[navigateMsg](h.press(runes("j"), runes("b")))
		if !ok {
			t.Fatal("view bugs did not navigate")
		}
		h.model.Update(nav)
		list := h.model.screen.(*bugsScreen)
		if list.table.projectID != "p2" || len(list.table.rows) != 1 {
			t.Fatalf("projectID = %q rows = %d", list.table.projectID, len(list.table.rows))
		}

		h.press(runes("c"))
		if list.table.projectID != "" || len(list.table.rows) != 2 {
			t.Errorf("after clear: projectID = %q rows = %d", list.table.projectID, len(list.table.rows))
		}
	})

	t.Run("quick jump ranks by fuzzy match", func(t *testing.T) {
		h := openProjects(t)
		h.press(runes("/"), runes("mob"))
		screen := h.model.screen.(*projectsScreen)
		if len(screen.matches) == 0 || screen.matches[0].Project.ID != "p2" {
			t.Fatalf("matches = %+v", screen.matches)
		}
	})
}

func TestBugListActions(t *testing.T) {
	h := newHarness(t, testToken)
	h.signIn(t)
	h.press(runes("2"))

	t.Run("status filter cycles", func(t *testing.T) {
		list := h.model.screen.(*bugsScreen)
		h.press(runes("f"))
		if list.table.filter.Status != tracker.StatusOpen || len(list.table.rows) != 1 {
			t.Errorf("status = %q rows = %d", list.table.filter.Status, len(list.table.rows))
		}
		for range len(bugcache.StatusFilters) - 1 {
			h.press(runes("f"))
		}
		if list.table.filter.Status != bugcache.StatusAll {
			t.Errorf("status = %q after a full cycle", list.table.filter.Status)
		}
	})

	t.Run("advance moves open to in-progress", func(t *testing.T) {
		updated, ok := awaitMsg[bugUpdatedMsg](h.press(runes("s")))
		if !ok || updated.err != nil {
			t.Fatalf("update = %+v, %v", updated, ok)
		}
		h.model.Update(updated)
		bug, _ := h.config.Bugs.Find("b1")
		if bug.Status != tracker.StatusInProgress {
			t.Errorf("status = %q", bug.Status)
		}
	})

	t.Run("detail renders the description", func(t *testing.T) {
		h.press(enterKey)
		view := ansi.Strip(h.model.View())
		if !strings.Contains(view, "The login button does nothing.") {
			t.Errorf("detail missing description:\n%s", view)
		}
		h.press(escKey)
		if h.model.screen.(*bugsScreen).table.detailOpen {
			t.Error("Esc did not close the detail pane")
		}
	})

	t.Run("delete needs confirmation", func(t *testing.T) {
		if cmd := h.press(runes("d"), runes("n")); cmd != nil {
			t.Error("declined delete issued a command")
		}
		if h.config.Bugs.Len() != 2 {
			t.Error("bug removed without confirmation")
		}
	})
}

func TestRejectedTokenSignsOut(t *testing.T) {
	h := newHarness(t, testToken)
	h.signIn(t)
	h.server.revoke()

	_, err := h.config.Bugs.Load(context.Background(), bugcache.AllBugs())
	if !tracker.IsUnauthorized(err) {
		t.Fatalf("load err = %v, want 401", err)
	}
	h.model.Update(failureMsg{err: err, fallback: "Failed to fetch bugs"})

	if got := h.model.State().String(); got != "unauthenticated:login" {
		t.Fatalf("state = %s", got)
	}
	if !strings.Contains(h.model.notice.text, "expired") {
		t.Errorf("notice = %q", h.model.notice.text)
	}
	if _, ok := h.manager.User(); ok {
		t.Error("session still active")
	}
}

func TestLogoutKey(t *testing.T) {
	h := newHarness(t, testToken)
	h.signIn(t)
	h.press(runes("L"))

	if got := h.model.State().String(); got != "unauthenticated:login" {
		t.Fatalf("state = %s", got)
	}
	if h.config.Bugs.Len() != 0 {
		t.Error("bug collection kept after sign-out")
	}
}

func TestStaleFailuresAreQuiet(t *testing.T) {
	h := newHarness(t, testToken)
	h.signIn(t)
	for _, err := range []error{bugcache.ErrStale, tracker.Fail("update bug", "Bug not found", bugcache.ErrNotCached)} {
		h.model.Update(failureMsg{err: err, fallback: "x"})
		if h.model.notice.text != "" {
			t.Errorf("notice %q shown for %v", h.model.notice.text, err)
		}
	}
}
