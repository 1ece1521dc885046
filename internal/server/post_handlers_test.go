package server

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"townsquare/internal/models"
	"townsquare/internal/ranking"
	"townsquare/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type feedResponse struct {
	Items      []models.Post `json:"items"`
	NextCursor string        `json:"next_cursor"`
}

func (e *testEnv) feed(t *testing.T, query url.Values, token string) feedResponse {
	t.Helper()
	status, raw := e.do(t, http.MethodGet, "/api/posts/feed?"+query.Encode(), nil, token)
	require.Equal(t, http.StatusOK, status, string(raw))
	return decode[feedResponse](t, raw)
}

func (e *testEnv) createPost(t *testing.T, token string, body map[string]any) (int, models.Post) {
	t.Helper()
	status, raw := e.do(t, http.MethodPost, "/api/posts", body, token)
	if status != http.StatusCreated {
		return status, models.Post{}
	}
	return status, decode[models.Post](t, raw)
}

func (e *testEnv) blockWord(t *testing.T, adminToken, word string, severity models.Severity) {
	t.Helper()
	status, raw := e.do(t, http.MethodPost, "/api/admin/blocked-words",
		map[string]string{"word": word, "severity": string(severity)}, adminToken)
	require.Equal(t, http.StatusCreated, status, string(raw))
}

func itemIDs(items []models.Post) []uint {
	ids := make([]uint, len(items))
	for i, p := range items {
		ids[i] = p.ID
	}
	return ids
}

func TestCreatePost_Moderation(t *testing.T) {
	env := newTestEnv(t, nil)
	_, admin := env.user(t, "admin", models.RoleAdmin)
	_, member := env.user(t, "member", models.RoleMember)

	env.blockWord(t, admin, "scamlink", models.SeverityHigh)
	env.blockWord(t, admin, "spammy", models.SeverityMedium)
	env.blockWord(t, admin, "heck", models.SeverityLow)

	tests := []struct {
		name       string
		body       map[string]any
		wantStatus int
		wantPost   models.PostStatus
	}{
		{"clean post publishes", map[string]any{"title": "Market day", "body": "Fresh bread on Saturday"}, http.StatusCreated, models.PostStatusPublished},
		{"low severity publishes", map[string]any{"body": "what the heck"}, http.StatusCreated, models.PostStatusPublished},
		{"medium severity waits for review", map[string]any{"body": "very SPAMMY offer"}, http.StatusCreated, models.PostStatusPendingReview},
		{"high severity is rejected", map[string]any{"title": "click my scamlink", "body": "now"}, http.StatusUnprocessableEntity, ""},
		{"empty body", map[string]any{"title": "only a title", "body": "   "}, http.StatusBadRequest, ""},
		{"bad media url", map[string]any{"body": "pic", "media_urls": []string{"ftp://x/y.png"}}, http.StatusBadRequest, ""},
		{"member cannot pin", map[string]any{"body": "pinned?", "is_pinned": true}, http.StatusForbidden, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, post := env.createPost(t, member, tt.body)
			assert.Equal(t, tt.wantStatus, status)
			if tt.wantStatus == http.StatusCreated {
				assert.Equal(t, tt.wantPost, post.Status)
				assert.Equal(t, "member", post.Author.Username)
				assert.Empty(t, post.Author.Email)
			}
		})
	}

	// the rejected post was never stored
	var count int64
	require.NoError(t, env.srv.db.Model(&models.Post{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)

	// pending posts stay out of the public feed
	page := env.feed(t, url.Values{}, "")
	assert.Len(t, page.Items, 2)
}

func TestCreatePost_RejectionErrorCode(t *testing.T) {
	env := newTestEnv(t, nil)
	_, admin := env.user(t, "admin", models.RoleAdmin)
	_, member := env.user(t, "member", models.RoleMember)
	env.blockWord(t, admin, "scamlink", models.SeverityHigh)

	status, raw := env.do(t, http.MethodPost, "/api/posts", map[string]any{"body": "scamlink"}, member)
	require.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, models.CodeModerationRejected, decode[models.ErrorResponse](t, raw).Code)
}

func TestCreatePost_RankingFields(t *testing.T) {
	env := newTestEnv(t, nil)
	_, staff := env.user(t, "staff", models.RoleStaff)

	status, post := env.createPost(t, staff, map[string]any{
		"body":      "Road closed on Elm",
		"tags":      []string{"general", "emergency"},
		"is_pinned": true,
	})
	require.Equal(t, http.StatusCreated, status)
	assert.True(t, post.IsPinned)
	assert.Equal(t, 100, post.TagPriority)
	assert.Equal(t, ranking.RolePriority(models.RoleStaff), post.RolePriority)
	assert.Equal(t, []string{ranking.TagGeneral, ranking.TagEmergency}, []string(post.Tags))
}

func TestFeed_CursorTraversal(t *testing.T) {
	env := newTestEnv(t, nil)
	admin, _ := env.user(t, "admin", models.RoleAdmin)
	member, memberToken := env.user(t, "member", models.RoleMember)

	ctx := context.Background()
	inputs := []service.CreatePostInput{
		{AuthorID: member.ID, Role: member.Role, Body: "m1", Tags: []string{"social"}},
		{AuthorID: admin.ID, Role: admin.Role, Body: "a1", Tags: []string{"general"}},
		{AuthorID: member.ID, Role: member.Role, Body: "m2", Tags: []string{"health"}},
		{AuthorID: admin.ID, Role: admin.Role, Body: "a2", IsPinned: true},
		{AuthorID: member.ID, Role: member.Role, Body: "m3"},
		{AuthorID: member.ID, Role: member.Role, Body: "m4", Tags: []string{"social"}},
		{AuthorID: admin.ID, Role: admin.Role, Body: "a3", Tags: []string{"health"}},
	}
	for _, in := range inputs {
		_, err := env.srv.postService.CreatePost(ctx, in)
		require.NoError(t, err)
	}

	full := env.feed(t, url.Values{"limit": {"100"}}, "")
	require.Len(t, full.Items, len(inputs))
	assert.Empty(t, full.NextCursor)

	for i := 1; i < len(full.Items); i++ {
		prev, cur := ranking.KeyOf(&full.Items[i-1]), ranking.KeyOf(&full.Items[i])
		assert.Equal(t, -1, ranking.Compare(prev, cur), "items %d and %d out of order", i-1, i)
	}
	assert.Equal(t, "a2", full.Items[0].Body)

	for _, limit := range []int{1, 2, 3, 7} {
		t.Run(fmt.Sprintf("limit=%d", limit), func(t *testing.T) {
			var (
				seen   []uint
				cursor string
			)
			for pages := 0; pages < 20; pages++ {
				q := url.Values{"limit": {fmt.Sprint(limit)}}
				if cursor != "" {
					q.Set("cursor", cursor)
				}
				page := env.feed(t, q, memberToken)
				assert.LessOrEqual(t, len(page.Items), limit)
				seen = append(seen, itemIDs(page.Items)...)
				if page.NextCursor == "" {
					break
				}
				cursor = page.NextCursor
			}
			assert.Equal(t, itemIDs(full.Items), seen)
		})
	}
}

func TestFeed_InvalidRequests(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name  string
		query string
		code  string
	}{
		{"garbage cursor", "cursor=%21%21not-base64", models.CodeInvalidCursor},
		{"wrong version", "cursor=eyJ2Ijo5OX0", models.CodeInvalidCursor},
		{"cursor with page", "cursor=eyJ2IjoxfQ&page=2", models.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, raw := env.do(t, http.MethodGet, "/api/posts/feed?"+tt.query, nil, "")
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, tt.code, decode[models.ErrorResponse](t, raw).Code)
		})
	}
}

func TestFeed_OffsetPages(t *testing.T) {
	env := newTestEnv(t, nil)
	u, _ := env.user(t, "poster", models.RoleMember)
	for i := 0; i < 5; i++ {
		_, err := env.srv.postService.CreatePost(context.Background(),
			service.CreatePostInput{AuthorID: u.ID, Role: u.Role, Body: fmt.Sprintf("post %d", i)})
		require.NoError(t, err)
	}

	full := env.feed(t, url.Values{}, "")
	second := env.feed(t, url.Values{"page": {"2"}, "limit": {"2"}}, "")
	assert.Equal(t, itemIDs(full.Items)[2:4], itemIDs(second.Items))
}

func TestFeed_IncludeHiddenIsAdminOnly(t *testing.T) {
	env := newTestEnv(t, nil)
	_, admin := env.user(t, "admin", models.RoleAdmin)
	_, member := env.user(t, "member", models.RoleMember)

	_, post := env.createPost(t, member, map[string]any{"body": "to be hidden"})
	status, _ := env.do(t, http.MethodPatch, fmt.Sprintf("/api/posts/%d/hide", post.ID), nil, admin)
	require.Equal(t, http.StatusOK, status)

	q := url.Values{"includeHidden": {"true"}}
	assert.Empty(t, env.feed(t, q, "").Items)
	assert.Empty(t, env.feed(t, q, member).Items)

	items := env.feed(t, q, admin).Items
	require.Len(t, items, 1)
	assert.Equal(t, models.PostStatusHidden, items[0].Status)

	status, _ = env.do(t, http.MethodPatch, fmt.Sprintf("/api/posts/%d/restore", post.ID), nil, admin)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, env.feed(t, url.Values{}, "").Items, 1)
}

func TestRoleChangeAffectsOnlyNewPosts(t *testing.T) {
	env := newTestEnv(t, nil)
	_, admin := env.user(t, "admin", models.RoleAdmin)
	u, token := env.user(t, "riser", models.RoleUser)

	_, before := env.createPost(t, token, map[string]any{"body": "written as user"})

	status, raw := env.do(t, http.MethodPut, fmt.Sprintf("/api/admin/users/%d/role", u.ID),
		map[string]string{"role": "staff"}, admin)
	require.Equal(t, http.StatusOK, status, string(raw))
	assert.Equal(t, models.RoleStaff, decode[models.User](t, raw).Role)

	_, after := env.createPost(t, token, map[string]any{"body": "written as staff"})

	status, raw = env.do(t, http.MethodGet, fmt.Sprintf("/api/posts/%d", before.ID), nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, ranking.RolePriority(models.RoleUser), decode[models.Post](t, raw).RolePriority)
	assert.Equal(t, ranking.RolePriority(models.RoleStaff), after.RolePriority)

	assert.Equal(t, []uint{after.ID, before.ID}, itemIDs(env.feed(t, url.Values{}, "").Items))
}

func TestUpdatePost(t *testing.T) {
	env := newTestEnv(t, nil)
	_, admin := env.user(t, "admin", models.RoleAdmin)
	_, author := env.user(t, "author", models.RoleMember)
	_, other := env.user(t, "other", models.RoleMember)
	env.blockWord(t, admin, "scamlink", models.SeverityHigh)
	env.blockWord(t, admin, "spammy", models.SeverityMedium)

	_, post := env.createPost(t, author, map[string]any{"body": "original"})
	path := fmt.Sprintf("/api/posts/%d", post.ID)

	status, _ := env.do(t, http.MethodPut, path, map[string]any{"body": "hijacked"}, other)
	assert.Equal(t, http.StatusForbidden, status)

	status, raw := env.do(t, http.MethodPut, path, map[string]any{"body": "now spammy"}, author)
	require.Equal(t, http.StatusOK, status, string(raw))
	assert.Equal(t, models.PostStatusPendingReview, decode[models.Post](t, raw).Status)

	status, raw = env.do(t, http.MethodPut, path, map[string]any{"body": "clean again", "tags": []string{"health"}}, author)
	require.Equal(t, http.StatusOK, status, string(raw))
	updated := decode[models.Post](t, raw)
	assert.Equal(t, models.PostStatusPublished, updated.Status)
	assert.Equal(t, 80, updated.TagPriority)
	assert.True(t, post.PublishedAt.Equal(updated.PublishedAt))

	status, _ = env.do(t, http.MethodPut, path, map[string]any{"title": "scamlink inside"}, author)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	// the rejected edit removed the post
	status, _ = env.do(t, http.MethodGet, path, nil, author)
	assert.Equal(t, http.StatusNotFound, status)
	status, raw = env.do(t, http.MethodGet, path, nil, admin)
	require.Equal(t, http.StatusOK, status)
	deleted := decode[models.Post](t, raw)
	assert.Equal(t, models.PostStatusDeleted, deleted.Status)
	assert.Equal(t, "clean again", deleted.Body)
}

func TestGetPost_Visibility(t *testing.T) {
	env := newTestEnv(t, nil)
	_, admin := env.user(t, "admin", models.RoleAdmin)
	_, author := env.user(t, "author", models.RoleMember)
	_, stranger := env.user(t, "stranger", models.RoleMember)
	env.blockWord(t, admin, "spammy", models.SeverityMedium)

	_, pending := env.createPost(t, author, map[string]any{"body": "spammy stuff"})
	path := fmt.Sprintf("/api/posts/%d", pending.ID)

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"anonymous", "", http.StatusNotFound},
		{"stranger", stranger, http.StatusNotFound},
		{"author", author, http.StatusOK},
		{"admin", admin, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := env.do(t, http.MethodGet, path, nil, tt.token)
			assert.Equal(t, tt.want, status)
		})
	}

	status, raw := env.do(t, http.MethodGet, "/api/posts/abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(raw), "Invalid ID")
}

func TestDeleteAndLikePost(t *testing.T) {
	env := newTestEnv(t, nil)
	_, author := env.user(t, "author", models.RoleMember)
	_, fan := env.user(t, "fan", models.RoleMember)

	_, post := env.createPost(t, author, map[string]any{"body": "like me"})
	base := fmt.Sprintf("/api/posts/%d", post.ID)

	status, _ := env.do(t, http.MethodPost, base+"/like", nil, author)
	assert.Equal(t, http.StatusBadRequest, status)

	for i := 0; i < 2; i++ {
		status, _ = env.do(t, http.MethodPost, base+"/like", nil, fan)
		assert.Equal(t, http.StatusOK, status)
	}

	status, raw := env.do(t, http.MethodGet, base, nil, fan)
	require.Equal(t, http.StatusOK, status)
	liked := decode[models.Post](t, raw)
	assert.Equal(t, 1, liked.LikesCount)
	assert.True(t, liked.Liked)
	require.NotNil(t, liked.Viewer)
	assert.False(t, liked.Viewer.CanEdit)
	assert.True(t, liked.Viewer.CanReport)

	status, _ = env.do(t, http.MethodDelete, base+"/like", nil, fan)
	assert.Equal(t, http.StatusOK, status)

	status, _ = env.do(t, http.MethodDelete, base, nil, fan)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = env.do(t, http.MethodDelete, base, nil, author)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = env.do(t, http.MethodDelete, base, nil, author)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestGetUserPosts(t *testing.T) {
	env := newTestEnv(t, nil)
	u, token := env.user(t, "author", models.RoleMember)
	_, other := env.user(t, "other", models.RoleMember)

	env.createPost(t, token, map[string]any{"body": "one"})
	env.createPost(t, token, map[string]any{"body": "two"})
	env.createPost(t, other, map[string]any{"body": "not mine"})

	status, raw := env.do(t, http.MethodGet, fmt.Sprintf("/api/users/%d/posts?limit=1", u.ID), nil, "")
	require.Equal(t, http.StatusOK, status)
	posts := decode[[]models.Post](t, raw)
	require.Len(t, posts, 1)
	assert.Equal(t, u.ID, posts[0].AuthorID)
}
