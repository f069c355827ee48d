// community/handlers_test.go
package community

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubVideos struct {
	items []VaultItem
	err   error
}

func (s stubVideos) Videos(ctx context.Context) ([]VaultItem, error) { return s.items, s.err }

func newTestServer(t *testing.T, store *MemStore, videos VideoSource) *httptest.Server {
	t.Helper()
	if videos == nil {
		videos = stubVideos{}
	}
	cfg := Config{
		FrontEndURL: "http://front.example",
		BaseURL:     "http://base.example",
		UploadDir:   t.TempDir(),
	}
	h := NewHandlers(store, videos, zap.NewNop(), cfg)

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	// Test-only login: drops the given user id straight into the
	// session, sidestepping the OAuth dance.
	mux.HandleFunc("POST /test/login/{id}", func(w http.ResponseWriter, r *http.Request) {
		h.Session.Put(r.Context(), sessionUserKey, r.PathValue("id"))
		w.WriteHeader(http.StatusNoContent)
	})

	srv := httptest.NewServer(h.Session.LoadAndSave(mux))
	t.Cleanup(srv.Close)
	return srv
}

func loginAs(t *testing.T, srv *httptest.Server, userID string) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resp, err := client.Post(srv.URL+"/test/login/"+userID, "", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	return client
}

func seedUser(t *testing.T, store *MemStore, username, role string) *User {
	t.Helper()
	user := NewUser(username, nil, role)
	require.NoError(t, store.SaveUser(context.Background(), user))
	return user
}

func seedPost(t *testing.T, store *MemStore, id, content string, createdAt time.Time) {
	t.Helper()
	require.NoError(t, store.CreateFeedPost(context.Background(), &FeedPost{
		ID:        id,
		Author:    "seed",
		Content:   content,
		Type:      TypeStatus,
		CreatedAt: createdAt,
	}))
}

func postJSON(t *testing.T, client *http.Client, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	resp, err := client.Post(url, "application/json", &buf)
	require.NoError(t, err)
	return resp
}

func decodeInto(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestFeedRequiresAuth(t *testing.T) {
	store := NewMemStore()
	srv := newTestServer(t, store, nil)

	resp, err := http.Get(srv.URL + "/api/feedupdate")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCreatePostRejectsWhitespace(t *testing.T) {
	store := NewMemStore()
	srv := newTestServer(t, store, nil)
	user := seedUser(t, store, "alice", RoleMember)
	client := loginAs(t, srv, user.ID)

	resp := postJSON(t, client, srv.URL+"/api/feedupdate", map[string]string{"text": "   "})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	posts, _, err := store.ListFeed(context.Background(), user.ID, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, posts, "no row should be created for whitespace-only text")
}

func TestCreateAndListFeed(t *testing.T) {
	store := NewMemStore()
	srv := newTestServer(t, store, nil)
	user := seedUser(t, store, "alice", RoleMember)
	client := loginAs(t, srv, user.ID)

	resp := postJSON(t, client, srv.URL+"/api/feedupdate", map[string]string{"text": "  hello crew  "})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created FeedPost
	decodeInto(t, resp, &created)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "alice", created.Author)
	assert.Equal(t, "hello crew", created.Content, "content is trimmed")
	assert.Equal(t, TypeStatus, created.Type)
	assert.Zero(t, created.Likes)
	assert.Zero(t, created.Comments)
	assert.False(t, created.Liked)
	assert.NotNil(t, created.CommentList)

	getResp, err := client.Get(srv.URL + "/api/feedupdate")
	require.NoError(t, err)
	var page FeedPage
	decodeInto(t, getResp, &page)
	require.Len(t, page.Posts, 1)
	assert.Equal(t, created.ID, page.Posts[0].ID)
	assert.False(t, page.HasMore)
}

func TestFeedPaginationBoundary(t *testing.T) {
	store := NewMemStore()
	srv := newTestServer(t, store, nil)
	user := seedUser(t, store, "alice", RoleMember)
	client := loginAs(t, srv, user.ID)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 1; i <= 7; i++ {
		seedPost(t, store, fmt.Sprintf("post-%d", i), fmt.Sprintf("update %d", i), base.Add(time.Duration(i)*time.Minute))
	}

	getPage := func(limit, offset int) FeedPage {
		resp, err := client.Get(fmt.Sprintf("%s/api/feedupdate?limit=%d&offset=%d", srv.URL, limit, offset))
		require.NoError(t, err)
		var page FeedPage
		decodeInto(t, resp, &page)
		return page
	}

	first := getPage(5, 0)
	require.Len(t, first.Posts, 5)
	assert.True(t, first.HasMore)
	for i, want := range []string{"post-7", "post-6", "post-5", "post-4", "post-3"} {
		assert.Equal(t, want, first.Posts[i].ID)
	}

	second := getPage(5, 5)
	require.Len(t, second.Posts, 2)
	assert.False(t, second.HasMore, "short page means the feed is exhausted")
	assert.Equal(t, "post-2", second.Posts[0].ID)
	assert.Equal(t, "post-1", second.Posts[1].ID)

	// No duplicates across the page boundary, order strictly
	// descending throughout.
	seen := map[string]bool{}
	var all []FeedPost
	all = append(all, first.Posts...)
	all = append(all, second.Posts...)
	for i, p := range all {
		assert.False(t, seen[p.ID], "post %s served twice", p.ID)
		seen[p.ID] = true
		if i > 0 {
			assert.False(t, all[i-1].CreatedAt.Before(p.CreatedAt))
		}
	}
}

func TestFeedDefaultsAndBadParams(t *testing.T) {
	store := NewMemStore()
	srv := newTestServer(t, store, nil)
	user := seedUser(t, store, "alice", RoleMember)
	client := loginAs(t, srv, user.ID)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 1; i <= 6; i++ {
		seedPost(t, store, fmt.Sprintf("post-%d", i), "x", base.Add(time.Duration(i)*time.Minute))
	}

	resp, err := client.Get(srv.URL + "/api/feedupdate?limit=-3&offset=bogus")
	require.NoError(t, err)
	var page FeedPage
	decodeInto(t, resp, &page)
	assert.Len(t, page.Posts, DefaultPageSize, "bad params fall back to defaults")
	assert.True(t, page.HasMore)
}

func TestToggleLikeFlow(t *testing.T) {
	store := NewMemStore()
	srv := newTestServer(t, store, nil)
	alice := seedUser(t, store, "alice", RoleMember)
	bob := seedUser(t, store, "bob", RoleMember)
	aliceClient := loginAs(t, srv, alice.ID)
	bobClient := loginAs(t, srv, bob.ID)

	seedPost(t, store, "post-x", "like me", time.Now().UTC())

	like := func(client *http.Client) (bool, int) {
		resp := postJSON(t, client, srv.URL+"/api/feedupdate/post-x/like", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var result struct {
			Liked      bool `json:"liked"`
			TotalLikes int  `json:"totalLikes"`
		}
		decodeInto(t, resp, &result)
		return result.Liked, result.TotalLikes
	}

	liked, total := like(aliceClient)
	assert.True(t, liked)
	assert.Equal(t, 1, total)

	liked, total = like(bobClient)
	assert.True(t, liked)
	assert.Equal(t, 2, total)

	liked, total = like(aliceClient)
	assert.False(t, liked, "second toggle un-likes")
	assert.Equal(t, 1, total)

	// Bob still sees his like; Alice does not.
	resp, err := bobClient.Get(srv.URL + "/api/feedupdate")
	require.NoError(t, err)
	var page FeedPage
	decodeInto(t, resp, &page)
	require.Len(t, page.Posts, 1)
	assert.True(t, page.Posts[0].Liked)
	assert.Equal(t, 1, page.Posts[0].Likes)
}

func TestLikeUnknownPost(t *testing.T) {
	store := NewMemStore()
	srv := newTestServer(t, store, nil)
	user := seedUser(t, store, "alice", RoleMember)
	client := loginAs(t, srv, user.ID)

	resp := postJSON(t, client, srv.URL+"/api/feedupdate/no-such-post/like", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCommentFlow(t *testing.T) {
	store := NewMemStore()
	srv := newTestServer(t, store, nil)
	user := seedUser(t, store, "alice", RoleMember)
	client := loginAs(t, srv, user.ID)

	seedPost(t, store, "post-x", "discuss", time.Now().UTC())

	resp := postJSON(t, client, srv.URL+"/api/feedupdate/post-x/comment", map[string]string{"text": " first! "})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result struct {
		Comment       Comment `json:"comment"`
		TotalComments int     `json:"totalComments"`
	}
	decodeInto(t, resp, &result)
	assert.Equal(t, "alice", result.Comment.Author)
	assert.Equal(t, "first!", result.Comment.Content)
	assert.Equal(t, 1, result.TotalComments)

	getResp, err := client.Get(srv.URL + "/api/feedupdate")
	require.NoError(t, err)
	var page FeedPage
	decodeInto(t, getResp, &page)
	require.Len(t, page.Posts, 1)
	assert.Equal(t, 1, page.Posts[0].Comments)
	require.Len(t, page.Posts[0].CommentList, 1)
	assert.Equal(t, result.Comment.ID, page.Posts[0].CommentList[0].ID)
}

func TestCommentValidationAndUnknownPost(t *testing.T) {
	store := NewMemStore()
	srv := newTestServer(t, store, nil)
	user := seedUser(t, store, "alice", RoleMember)
	client := loginAs(t, srv, user.ID)

	seedPost(t, store, "post-x", "discuss", time.Now().UTC())

	resp := postJSON(t, client, srv.URL+"/api/feedupdate/post-x/comment", map[string]string{"text": "\t\n "})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Zero(t, store.CommentCount("post-x"))

	resp = postJSON(t, client, srv.URL+"/api/feedupdate/ghost/comment", map[string]string{"text": "hello"})
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Zero(t, store.CommentCount("ghost"))
}

func TestGamesCRUD(t *testing.T) {
	store := NewMemStore()
	srv := newTestServer(t, store, nil)
	member := seedUser(t, store, "alice", RoleMember)
	admin := seedUser(t, store, "boss", RoleAdmin)
	memberClient := loginAs(t, srv, member.ID)
	adminClient := loginAs(t, srv, admin.ID)

	body := map[string]any{
		"name":        "Lethal Company",
		"description": "scrap runs",
		"status":      "active",
		"fun_fact":    "quota never ends",
		"image_url":   "http://img.example/lc.png",
		"quotes":      []string{"we need to leave", "jetpack incident"},
		"notes":       []string{"never split up"},
	}

	resp := postJSON(t, memberClient, srv.URL+"/api/games", body)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "only admins may create games")

	resp = postJSON(t, adminClient, srv.URL+"/api/games", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		ID int64 `json:"id"`
	}
	decodeInto(t, resp, &created)
	require.NotZero(t, created.ID)

	getResp, err := memberClient.Get(fmt.Sprintf("%s/api/games/%d", srv.URL, created.ID))
	require.NoError(t, err)
	var game Game
	decodeInto(t, getResp, &game)
	assert.Equal(t, "Lethal Company", game.Name)
	assert.Equal(t, []string{"we need to leave", "jetpack incident"}, game.Quotes)
	assert.Equal(t, []string{"never split up"}, game.Notes)

	body["quotes"] = []string{"new quote"}
	req, err := http.NewRequest(http.MethodPut, fmt.Sprintf("%s/api/games/%d", srv.URL, created.ID), jsonBody(t, body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	putResp, err := adminClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, putResp.StatusCode)
	putResp.Body.Close()

	getResp, err = memberClient.Get(fmt.Sprintf("%s/api/games/%d", srv.URL, created.ID))
	require.NoError(t, err)
	decodeInto(t, getResp, &game)
	assert.Equal(t, []string{"new quote"}, game.Quotes)

	req, err = http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/api/games/%d", srv.URL, created.ID), nil)
	require.NoError(t, err)
	delResp, err := adminClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, delResp.StatusCode)
	delResp.Body.Close()

	getResp, err = memberClient.Get(fmt.Sprintf("%s/api/games/%d", srv.URL, created.ID))
	require.NoError(t, err)
	getResp.Body.Close()
	assert.Equal(t, http.StatusNotFound, getResp.StatusCode)
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(v))
	return &buf
}

func TestCrewCRUD(t *testing.T) {
	store := NewMemStore()
	srv := newTestServer(t, store, nil)
	admin := seedUser(t, store, "boss", RoleAdmin)
	adminClient := loginAs(t, srv, admin.ID)

	resp := postJSON(t, adminClient, srv.URL+"/api/crew", map[string]any{
		"name":        "Zed",
		"nickname":    "the panicker",
		"panic_level": 11,
		"fun_facts":   []string{"screams first"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var member CrewMember
	decodeInto(t, resp, &member)
	require.NotZero(t, member.ID)

	listResp, err := adminClient.Get(srv.URL + "/api/crew")
	require.NoError(t, err)
	var members []CrewMember
	decodeInto(t, listResp, &members)
	require.Len(t, members, 1)
	assert.Equal(t, "Zed", members[0].Name)

	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/api/crew/%d", srv.URL, member.ID), nil)
	require.NoError(t, err)
	delResp, err := adminClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, delResp.StatusCode)
	delResp.Body.Close()

	getResp, err := adminClient.Get(fmt.Sprintf("%s/api/crew/%d", srv.URL, member.ID))
	require.NoError(t, err)
	getResp.Body.Close()
	assert.Equal(t, http.StatusNotFound, getResp.StatusCode)
}

func TestVaultMergesLocalAndYouTube(t *testing.T) {
	store := NewMemStore()
	ytItems := []VaultItem{{
		ID: "yt-abc", Source: "youtube", Title: "highlight reel", Type: "video",
		Game: "YouTube", Tags: []string{"youtube"}, YouTubeID: "abc",
	}}
	srv := newTestServer(t, store, stubVideos{items: ytItems})
	user := seedUser(t, store, "alice", RoleMember)
	client := loginAs(t, srv, user.ID)

	require.NoError(t, store.CreateClip(context.Background(), &Clip{
		Title: "clutch", Game: "Phasmophobia", Type: "image", Tags: []string{"spooky"},
		FilePath: "1-1.png", UploaderID: user.ID, UploaderUsername: "alice",
	}))

	resp, err := client.Get(srv.URL + "/api/vault/vault")
	require.NoError(t, err)
	var items []VaultItem
	decodeInto(t, resp, &items)
	require.Len(t, items, 2)

	assert.Equal(t, "local", items[0].Source)
	assert.Equal(t, "http://base.example/uploads/1-1.png", items[0].VideoURL)
	assert.Equal(t, items[0].VideoURL, items[0].Thumbnail, "image clips use the file as thumbnail")
	assert.Equal(t, "youtube", items[1].Source)
}

func TestVaultSurvivesYouTubeFailure(t *testing.T) {
	store := NewMemStore()
	srv := newTestServer(t, store, stubVideos{err: fmt.Errorf("quota exceeded")})
	user := seedUser(t, store, "alice", RoleMember)
	client := loginAs(t, srv, user.ID)

	resp, err := client.Get(srv.URL + "/api/vault/vault")
	require.NoError(t, err)
	var items []VaultItem
	decodeInto(t, resp, &items)
	assert.Empty(t, items)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthCheckAndLocalLogin(t *testing.T) {
	store := NewMemStore()
	srv := newTestServer(t, store, nil)
	admin := seedUser(t, store, "boss", RoleAdmin)
	require.NoError(t, admin.SetPassword("hunter22"))
	require.NoError(t, store.SaveUser(context.Background(), admin))

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{Jar: jar}

	resp, err := client.Get(srv.URL + "/api/auth/check")
	require.NoError(t, err)
	var check struct {
		LoggedIn bool  `json:"loggedIn"`
		User     *User `json:"user"`
	}
	decodeInto(t, resp, &check)
	assert.False(t, check.LoggedIn)

	resp = postJSON(t, client, srv.URL+"/api/auth/login", map[string]string{"username": "boss", "password": "wrong"})
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = postJSON(t, client, srv.URL+"/api/auth/login", map[string]string{"username": "boss", "password": "hunter22"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = client.Get(srv.URL + "/api/auth/check")
	require.NoError(t, err)
	decodeInto(t, resp, &check)
	assert.True(t, check.LoggedIn)
	require.NotNil(t, check.User)
	assert.Equal(t, "boss", check.User.Username)
}
