package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dalemusser/roomshare/internal/domain/models"
)

// MyGroups lists the current user's groups in backend order.
func (c *Client) MyGroups(ctx context.Context) ([]models.Group, error) {
	var out []models.Group
	if err := c.do(ctx, call{op: "my_groups", method: http.MethodGet, path: "/groups/my-groups"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateGroup creates a group owned by the current user.
func (c *Client) CreateGroup(ctx context.Context, name string) (models.CreatedGroup, error) {
	var out models.CreatedGroup
	cl, err := jsonCall("create_group", http.MethodPost, "/groups", map[string]string{"name": name})
	if err != nil {
		return out, err
	}
	err = c.do(ctx, cl, &out)
	return out, err
}

// GroupMembers lists a group's members.
func (c *Client) GroupMembers(ctx context.Context, groupID int64) ([]models.Member, error) {
	var out []models.Member
	path := fmt.Sprintf("/groups/%d/members", groupID)
	if err := c.do(ctx, call{op: "group_members", method: http.MethodGet, path: path}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddGroupMember adds the user with the given email. A 409 (already a member)
// matches ErrConflict.
func (c *Client) AddGroupMember(ctx context.Context, groupID int64, email string) error {
	cl, err := jsonCall("add_member", http.MethodPost, fmt.Sprintf("/groups/%d/members", groupID),
		map[string]string{"email": email})
	if err != nil {
		return err
	}
	return c.do(ctx, cl, nil)
}

// RemoveGroupMember removes a user from the group.
func (c *Client) RemoveGroupMember(ctx context.Context, groupID, userID int64) error {
	path := fmt.Sprintf("/groups/%d/members/%d", groupID, userID)
	return c.do(ctx, call{op: "remove_member", method: http.MethodDelete, path: path}, nil)
}
