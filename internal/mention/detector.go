package mention

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/JetBrains/junie-gitlab/internal/gitlabclient"

	"github.com/qiniu/x/xlog"
	gitlab "gitlab.com/gitlab-org/api/client-go"
)

// API is the read-only slice of the GitLab client the detector needs.
type API interface {
	GetProject(ctx context.Context, projectID int) (*gitlab.Project, error)
	GetGroup(ctx context.Context, groupID int) (*gitlab.Group, error)
	GetUser(ctx context.Context, userID int) (*gitlab.User, error)
	ListProjectAccessTokens(ctx context.Context, projectID int) ([]*gitlab.ProjectAccessToken, error)
	ListGroupAccessTokens(ctx context.Context, groupID int) ([]*gitlab.GroupAccessToken, error)
}

// LiteralMarkers are the fixed phrases that always count as a mention,
// matched case-insensitively. Both the @ and # spellings are recognized.
var LiteralMarkers = []string{"@junie", "#junie"}

// identityRefPattern matches GitLab bot-user references. Access-token bot
// accounts are named project_<id>_bot_<hash> or group_<id>_bot_<hash>.
var identityRefPattern = regexp.MustCompile(`@(?:project|group)_\d+_bot\w*`)

// Detector decides whether a comment addresses the agent, either through a
// literal marker or through a platform reference to one of the bot users
// owning an access token visible from the project.
type Detector struct {
	api           API
	maxGroupDepth int
}

func NewDetector(api API, maxGroupDepth int) *Detector {
	return &Detector{
		api:           api,
		maxGroupDepth: maxGroupDepth,
	}
}

type candidateToken struct {
	name   string
	userID int
}

// IsMentioned reports whether text addresses the agent in projectID.
// The literal-marker fast path needs no API access. Permission-denied
// responses during the ancestor walk end the walk cleanly; any other API
// failure is returned to the caller.
func (d *Detector) IsMentioned(ctx context.Context, projectID int, text, tagPattern string) (bool, error) {
	lower := strings.ToLower(text)
	for _, marker := range LiteralMarkers {
		if strings.Contains(lower, marker) {
			return true, nil
		}
	}

	refs := identityRefPattern.FindAllString(text, -1)
	if len(refs) == 0 {
		return false, nil
	}

	tagRe, err := regexp.Compile(tagPattern)
	if err != nil {
		return false, fmt.Errorf("invalid tag pattern %q: %w", tagPattern, err)
	}

	tokens, err := d.collectTokens(ctx, projectID)
	if err != nil {
		return false, err
	}

	xl := xlog.NewWith(ctx)
	for _, token := range tokens {
		if !tagRe.MatchString(token.name) {
			continue
		}
		user, err := d.api.GetUser(ctx, token.userID)
		if err != nil {
			if gitlabclient.IsForbidden(err) || gitlabclient.IsNotFound(err) {
				xl.Warnf("Skipping token %q: owner %d not visible", token.name, token.userID)
				continue
			}
			return false, fmt.Errorf("failed to resolve owner of token %q: %w", token.name, err)
		}
		username := strings.ToLower(user.Username)
		for _, ref := range refs {
			if strings.Contains(strings.ToLower(ref), username) {
				xl.Infof("Matched mention of bot user %s via token %q", user.Username, token.name)
				return true, nil
			}
		}
	}

	return false, nil
}

// collectTokens gathers the active, non-revoked access tokens visible from
// the project: its own tokens plus those of every ancestor group reachable
// by following parent ids. The walk is iterative and depth-bounded, and a
// 403 at any level simply ends it.
func (d *Detector) collectTokens(ctx context.Context, projectID int) ([]candidateToken, error) {
	xl := xlog.NewWith(ctx)

	project, err := d.api.GetProject(ctx, projectID)
	if err != nil {
		if gitlabclient.IsForbidden(err) {
			xl.Warnf("Project %d not visible, no tokens to collect", projectID)
			return nil, nil
		}
		return nil, err
	}

	var tokens []candidateToken

	projectTokens, err := d.api.ListProjectAccessTokens(ctx, projectID)
	if err != nil {
		if !gitlabclient.IsForbidden(err) {
			return nil, err
		}
	} else {
		for _, t := range projectTokens {
			if t.Active && !t.Revoked {
				tokens = append(tokens, candidateToken{name: t.Name, userID: t.UserID})
			}
		}
	}

	groupID := 0
	if project.Namespace != nil && project.Namespace.Kind == "group" {
		groupID = project.Namespace.ID
	}

	visited := make(map[int]bool)
	for depth := 0; groupID != 0 && depth < d.maxGroupDepth; depth++ {
		if visited[groupID] {
			xl.Warnf("Group hierarchy cycle at group %d, stopping walk", groupID)
			break
		}
		visited[groupID] = true

		groupTokens, err := d.api.ListGroupAccessTokens(ctx, groupID)
		if err != nil {
			if gitlabclient.IsForbidden(err) {
				break
			}
			return nil, err
		}
		for _, t := range groupTokens {
			if t.Active && !t.Revoked {
				tokens = append(tokens, candidateToken{name: t.Name, userID: t.UserID})
			}
		}

		group, err := d.api.GetGroup(ctx, groupID)
		if err != nil {
			if gitlabclient.IsForbidden(err) {
				break
			}
			return nil, err
		}
		groupID = group.ParentID
	}

	return tokens, nil
}
