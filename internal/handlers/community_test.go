// community_test.go
//
// Haven, a mental health support backend: AI chat, intake, community and therapist matching
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of haven.
// haven is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// haven is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with haven.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package handlers_test

import (
	"fmt"
	"testing"

	"github.com/localnerve/haven/internal/handlers"
	"github.com/localnerve/haven/internal/services"
	"github.com/localnerve/haven/internal/testutil"
)

func newCommunityHandler(t *testing.T) *handlers.CommunityHandler {
	t.Helper()
	svc := &services.CommunityService{DB: testutil.SetupTestDB(t), Moderation: &services.ContentModerator{}}
	if _, err := svc.CreateCircle("admin", "Night Owls", "For people awake at 3am"); err != nil {
		t.Fatalf("CreateCircle failed: %v", err)
	}
	return &handlers.CommunityHandler{Community: svc}
}

// TestCommunityPostStatuses tests 403, 201, 202 and 422 on post creation
func TestCommunityPostStatuses(t *testing.T) {
	h := newCommunityHandler(t)
	app := newApp(testutil.Identity("user-1"))
	app.Post("/api/circles/:slug/members", h.JoinCircle)
	app.Post("/api/circles/:slug/posts", h.CreatePost)
	app.Get("/api/circles/:slug/posts", h.ListPosts)

	post := map[string]interface{}{"title": "Can't sleep", "body": "Anyone else up?"}

	resp := doJSON(t, app, "POST", "/api/circles/night-owls/posts", post)
	assertStatus(t, resp, 403)

	resp = doJSON(t, app, "POST", "/api/circles/night-owls/members", nil)
	assertStatus(t, resp, 200)

	resp = doJSON(t, app, "POST", "/api/circles/night-owls/posts", post)
	assertStatus(t, resp, 201)

	resp = doJSON(t, app, "POST", "/api/circles/night-owls/posts", map[string]interface{}{
		"title": "Honestly", "body": "everyone here should go die",
	})
	assertStatus(t, resp, 422)
	var blocked map[string]interface{}
	parseJSON(t, resp, &blocked)
	if blocked["type"] != "community.moderation" || blocked["reasons"] == nil {
		t.Errorf("Expected moderation envelope with reasons, got %v", blocked)
	}

	resp = doJSON(t, app, "POST", "/api/circles/night-owls/posts", map[string]interface{}{
		"title": "Tonight", "body": "I feel hopeless",
	})
	assertStatus(t, resp, 202)
	var held map[string]interface{}
	parseJSON(t, resp, &held)
	if held["status"] != "pending" || held["crisis"] == nil {
		t.Errorf("Expected pending post with crisis info, got %v", held)
	}

	resp = doJSON(t, app, "POST", "/api/circles/missing/posts", post)
	assertStatus(t, resp, 404)

	resp = doJSON(t, app, "GET", "/api/circles/night-owls/posts?sort=top&page=1&pageSize=10", nil)
	assertStatus(t, resp, 200)
	var page map[string]interface{}
	parseJSON(t, resp, &page)
	if page["total"] != float64(1) {
		t.Errorf("Expected 1 published post, got %v", page["total"])
	}
}

// TestCommunityVoteAndReport tests voting and duplicate reports over HTTP
func TestCommunityVoteAndReport(t *testing.T) {
	h := newCommunityHandler(t)
	if _, err := h.Community.JoinCircle("author", "night-owls"); err != nil {
		t.Fatalf("JoinCircle failed: %v", err)
	}
	res, err := h.Community.CreatePost(t.Context(), services.Viewer{UserID: "author"}, "night-owls", services.PostInput{
		Title: "Small win", Body: "Slept six hours", Anonymous: true,
	})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	postURL := "/api/posts/" + itoa(res.Post.ID)

	app := newApp(testutil.Identity("reader"))
	app.Get("/api/posts/:id", h.GetPost)
	app.Put("/api/posts/:id/vote", h.Vote)
	app.Post("/api/posts/:id/reports", h.ReportPost)
	app.Delete("/api/posts/:id", h.DeletePost)

	resp := doJSON(t, app, "GET", postURL, nil)
	assertStatus(t, resp, 200)
	var detail map[string]interface{}
	parseJSON(t, resp, &detail)
	if _, ok := detail["authorId"]; ok {
		t.Errorf("Expected anonymous author to be hidden, got %v", detail["authorId"])
	}

	resp = doJSON(t, app, "PUT", postURL+"/vote", map[string]interface{}{"value": "1"})
	assertStatus(t, resp, 200)
	var vote map[string]interface{}
	parseJSON(t, resp, &vote)
	if vote["score"] != float64(1) {
		t.Errorf("Expected score 1, got %v", vote["score"])
	}

	resp = doJSON(t, app, "PUT", postURL+"/vote", map[string]interface{}{"value": 5})
	assertStatus(t, resp, 400)

	resp = doJSON(t, app, "POST", postURL+"/reports", map[string]string{"reason": "spam"})
	assertStatus(t, resp, 201)

	resp = doJSON(t, app, "POST", postURL+"/reports", map[string]string{"reason": "spam again"})
	assertStatus(t, resp, 409)

	resp = doJSON(t, app, "DELETE", postURL, nil)
	assertStatus(t, resp, 403)

	resp = doJSON(t, app, "GET", "/api/posts/abc", nil)
	assertStatus(t, resp, 400)
}

// TestCommunityFeedOrderAndPaging tests sort=top, page offsets and the page size cap
func TestCommunityFeedOrderAndPaging(t *testing.T) {
	h := newCommunityHandler(t)
	admin := services.Viewer{UserID: "admin", Admin: true}
	ids := make([]uint64, 0, 52)
	for i := 0; i < 52; i++ {
		res, err := h.Community.CreatePost(t.Context(), admin, "night-owls", services.PostInput{Title: fmt.Sprintf("Night %d", i), Body: "Still awake"})
		if err != nil {
			t.Fatalf("CreatePost failed: %v", err)
		}
		ids = append(ids, res.Post.ID)
	}
	if _, err := h.Community.Vote("reader", ids[5], 1); err != nil {
		t.Fatalf("Vote failed: %v", err)
	}

	app := newApp(testutil.Identity("reader"))
	app.Get("/api/circles/:slug/posts", h.ListPosts)

	type feed struct {
		Posts []struct {
			ID    uint64 `json:"id"`
			Score int64  `json:"score"`
		} `json:"posts"`
		Page     int   `json:"page"`
		PageSize int   `json:"pageSize"`
		Total    int64 `json:"total"`
	}

	resp := doJSON(t, app, "GET", "/api/circles/night-owls/posts?sort=top&pageSize=2", nil)
	assertStatus(t, resp, 200)
	var top feed
	parseJSON(t, resp, &top)
	if len(top.Posts) != 2 || top.Posts[0].ID != ids[5] || top.Posts[0].Score != 1 {
		t.Errorf("Expected the voted post first under sort=top, got %+v", top.Posts)
	}

	resp = doJSON(t, app, "GET", "/api/circles/night-owls/posts?pageSize=1000", nil)
	assertStatus(t, resp, 200)
	var capped feed
	parseJSON(t, resp, &capped)
	if capped.PageSize != 50 || len(capped.Posts) != 50 || capped.Total != 52 {
		t.Errorf("Expected 50 of 52 posts, got size %d len %d total %d", capped.PageSize, len(capped.Posts), capped.Total)
	}
	if capped.Posts[0].ID != ids[51] {
		t.Errorf("Expected newest first, got %d", capped.Posts[0].ID)
	}

	resp = doJSON(t, app, "GET", "/api/circles/night-owls/posts?page=2", nil)
	assertStatus(t, resp, 200)
	var second feed
	parseJSON(t, resp, &second)
	if second.Page != 2 || second.PageSize != 20 || len(second.Posts) != 20 || second.Posts[0].ID != capped.Posts[20].ID {
		t.Errorf("Expected page 2 of 20 starting at the 21st newest, got page %d size %d len %d", second.Page, second.PageSize, len(second.Posts))
	}

	resp = doJSON(t, app, "GET", "/api/circles/night-owls/posts?page=3", nil)
	assertStatus(t, resp, 200)
	var last feed
	parseJSON(t, resp, &last)
	if len(last.Posts) != 12 || last.Posts[11].ID != ids[0] {
		t.Errorf("Expected 12 posts ending with the oldest, got %d", len(last.Posts))
	}
}
