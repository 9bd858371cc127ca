package mention

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gitlab "gitlab.com/gitlab-org/api/client-go"
)

type fakeAPI struct {
	t             *testing.T
	project       *gitlab.Project
	groups        map[int]*gitlab.Group
	users         map[int]*gitlab.User
	projectTokens []*gitlab.ProjectAccessToken
	groupTokens   map[int][]*gitlab.GroupAccessToken
	forbiddenGIDs map[int]bool
	calls         int
}

func forbiddenErr() error {
	return &gitlab.ErrorResponse{
		Response: &http.Response{
			StatusCode: http.StatusForbidden,
			Request:    &http.Request{Method: "GET", URL: &url.URL{Path: "/"}},
		},
		Message: "403 Forbidden",
	}
}

func (f *fakeAPI) GetProject(ctx context.Context, projectID int) (*gitlab.Project, error) {
	f.calls++
	return f.project, nil
}

func (f *fakeAPI) GetGroup(ctx context.Context, groupID int) (*gitlab.Group, error) {
	f.calls++
	if f.forbiddenGIDs[groupID] {
		return nil, forbiddenErr()
	}
	group, ok := f.groups[groupID]
	require.True(f.t, ok, "unexpected group lookup: %d", groupID)
	return group, nil
}

func (f *fakeAPI) GetUser(ctx context.Context, userID int) (*gitlab.User, error) {
	f.calls++
	user, ok := f.users[userID]
	require.True(f.t, ok, "unexpected user lookup: %d", userID)
	return user, nil
}

func (f *fakeAPI) ListProjectAccessTokens(ctx context.Context, projectID int) ([]*gitlab.ProjectAccessToken, error) {
	f.calls++
	return f.projectTokens, nil
}

func (f *fakeAPI) ListGroupAccessTokens(ctx context.Context, groupID int) ([]*gitlab.GroupAccessToken, error) {
	f.calls++
	if f.forbiddenGIDs[groupID] {
		return nil, forbiddenErr()
	}
	return f.groupTokens[groupID], nil
}

func projectToken(userID int, name string, active, revoked bool) *gitlab.ProjectAccessToken {
	return &gitlab.ProjectAccessToken{
		PersonalAccessToken: gitlab.PersonalAccessToken{
			UserID:  userID,
			Name:    name,
			Active:  active,
			Revoked: revoked,
		},
	}
}

func groupToken(userID int, name string) *gitlab.GroupAccessToken {
	return &gitlab.GroupAccessToken{
		PersonalAccessToken: gitlab.PersonalAccessToken{
			UserID: userID,
			Name:   name,
			Active: true,
		},
	}
}

func projectInGroup(groupID int) *gitlab.Project {
	return &gitlab.Project{
		ID: 7,
		Namespace: &gitlab.ProjectNamespace{
			ID:   groupID,
			Kind: "group",
		},
	}
}

func TestIsMentionedLiteralMarkers(t *testing.T) {
	api := &fakeAPI{t: t}
	d := NewDetector(api, 10)

	tests := []struct {
		name string
		text string
	}{
		{"at marker", "@junie fix the login bug"},
		{"hash marker", "please #junie have a look"},
		{"upper case", "Hey @JUNIE can you help?"},
		{"mixed case hash", "#Junie review this"},
		{"embedded in sentence", "cc @junie, thanks"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mentioned, err := d.IsMentioned(context.Background(), 7, tt.text, "^junie")
			require.NoError(t, err)
			assert.True(t, mentioned)
		})
	}

	// literal markers must not hit the API at all
	assert.Zero(t, api.calls)
}

func TestIsMentionedNoMarkerNoReference(t *testing.T) {
	api := &fakeAPI{t: t}
	d := NewDetector(api, 10)

	mentioned, err := d.IsMentioned(context.Background(), 7, "just a normal comment about @someone", "^junie")
	require.NoError(t, err)
	assert.False(t, mentioned)
	assert.Zero(t, api.calls)
}

func TestIsMentionedViaProjectToken(t *testing.T) {
	api := &fakeAPI{
		t:       t,
		project: projectInGroup(0),
		projectTokens: []*gitlab.ProjectAccessToken{
			projectToken(42, "junie-agent", true, false),
		},
		users: map[int]*gitlab.User{
			42: {ID: 42, Username: "project_7_bot_abc123"},
		},
	}
	api.project.Namespace = nil
	d := NewDetector(api, 10)

	mentioned, err := d.IsMentioned(context.Background(), 7, "@project_7_bot_abc123 please fix this", "^junie")
	require.NoError(t, err)
	assert.True(t, mentioned)
}

func TestIsMentionedTokenNameFiltered(t *testing.T) {
	api := &fakeAPI{
		t:       t,
		project: projectInGroup(0),
		projectTokens: []*gitlab.ProjectAccessToken{
			projectToken(42, "deploy-token", true, false),
		},
	}
	api.project.Namespace = nil
	d := NewDetector(api, 10)

	mentioned, err := d.IsMentioned(context.Background(), 7, "@project_7_bot_abc123 please fix this", "^junie")
	require.NoError(t, err)
	assert.False(t, mentioned)
}

func TestIsMentionedIgnoresInactiveAndRevokedTokens(t *testing.T) {
	api := &fakeAPI{
		t:       t,
		project: projectInGroup(0),
		projectTokens: []*gitlab.ProjectAccessToken{
			projectToken(42, "junie-old", false, false),
			projectToken(43, "junie-revoked", true, true),
		},
	}
	api.project.Namespace = nil
	d := NewDetector(api, 10)

	mentioned, err := d.IsMentioned(context.Background(), 7, "@project_7_bot_abc123 go", "^junie")
	require.NoError(t, err)
	assert.False(t, mentioned)
}

func TestIsMentionedViaAncestorGroupToken(t *testing.T) {
	api := &fakeAPI{
		t:       t,
		project: projectInGroup(10),
		groups: map[int]*gitlab.Group{
			10: {ID: 10, ParentID: 20},
			20: {ID: 20, ParentID: 0},
		},
		groupTokens: map[int][]*gitlab.GroupAccessToken{
			20: {groupToken(99, "junie-group")},
		},
		users: map[int]*gitlab.User{
			99: {ID: 99, Username: "group_20_bot_def456"},
		},
	}
	d := NewDetector(api, 10)

	mentioned, err := d.IsMentioned(context.Background(), 7, "@group_20_bot_def456 take over", "^junie")
	require.NoError(t, err)
	assert.True(t, mentioned)
}

func TestIsMentionedPermissionDeniedEndsWalk(t *testing.T) {
	// the parent group is not visible: the walk must stop cleanly and the
	// grandparent's token must never be considered
	api := &fakeAPI{
		t:             t,
		project:       projectInGroup(10),
		groups:        map[int]*gitlab.Group{10: {ID: 10, ParentID: 20}},
		forbiddenGIDs: map[int]bool{20: true},
		groupTokens: map[int][]*gitlab.GroupAccessToken{
			10: {},
		},
	}
	d := NewDetector(api, 10)

	mentioned, err := d.IsMentioned(context.Background(), 7, "@group_30_bot_zzz hello", "^junie")
	require.NoError(t, err)
	assert.False(t, mentioned)
}

func TestIsMentionedGroupCycleTerminates(t *testing.T) {
	api := &fakeAPI{
		t:       t,
		project: projectInGroup(10),
		groups: map[int]*gitlab.Group{
			10: {ID: 10, ParentID: 10},
		},
	}
	d := NewDetector(api, 10)

	mentioned, err := d.IsMentioned(context.Background(), 7, "@group_10_bot_x hi", "^junie")
	require.NoError(t, err)
	assert.False(t, mentioned)
}

func TestIsMentionedBadTagPattern(t *testing.T) {
	d := NewDetector(&fakeAPI{t: t}, 10)

	_, err := d.IsMentioned(context.Background(), 7, "@project_7_bot_abc hello", "([")
	assert.Error(t, err)
}
