package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/api"
)

var _ api.GroupServiceHandler = (*GroupService)(nil)

var errMissingName = errors.New("group name is required")

// GroupService implements the Connect GroupService
type GroupService struct {
	store storage.Store
}

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store) *GroupService {
	return &GroupService{store: store}
}

// CreateGroup creates a group. The caller is always a member.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("CreateGroup request received",
		"name", req.Msg.Name,
		"members_count", len(req.Msg.Members),
	)

	name := strings.TrimSpace(req.Msg.Name)
	if name == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errMissingName)
	}

	members := append(slices.Clone(req.Msg.Members), caller)
	slices.Sort(members)
	members = slices.Compact(members)
	if err := s.requireUsers(ctx, members); err != nil {
		return nil, err
	}

	group := &models.Group{
		Name:      name,
		Members:   members,
		CreatedBy: caller,
	}

	// Save to storage (generates ID and CreatedAt)
	if err := s.store.CreateGroup(ctx, group); err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	slog.Info("Group created", "group_id", group.ID)
	return connect.NewResponse(&api.CreateGroupResponse{Group: toAPIGroup(group)}), nil
}

// GetGroup retrieves a group by ID. Only members may read it.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("GetGroup request received", "group_id", req.Msg.GroupID)

	group, err := s.store.GetGroup(ctx, req.Msg.GroupID)
	if err != nil {
		slog.Error("GetGroup failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}
	if !group.HasMember(caller) {
		return nil, connect.NewError(connect.CodePermissionDenied, errNotMember)
	}

	return connect.NewResponse(&api.GetGroupResponse{Group: toAPIGroup(group)}), nil
}

// ListGroups returns the groups the caller belongs to.
func (s *GroupService) ListGroups(ctx context.Context, req *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("ListGroups request received", "user_id", caller)

	groups, err := s.store.ListGroupsForUser(ctx, caller)
	if err != nil {
		slog.Error("ListGroups failed", "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	out := make([]*api.Group, len(groups))
	for i, g := range groups {
		out[i] = toAPIGroup(g)
	}

	slog.Info("ListGroups successful", "count", len(out))
	return connect.NewResponse(&api.ListGroupsResponse{Groups: out}), nil
}

// AddGroupMembers adds registered users to a group the caller belongs to.
func (s *GroupService) AddGroupMembers(ctx context.Context, req *connect.Request[api.AddGroupMembersRequest]) (*connect.Response[api.AddGroupMembersResponse], error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("AddGroupMembers request received",
		"group_id", req.Msg.GroupID,
		"members_count", len(req.Msg.Members),
	)

	if err := requireMember(ctx, s.store, req.Msg.GroupID, caller); err != nil {
		return nil, err
	}
	if err := s.requireUsers(ctx, req.Msg.Members); err != nil {
		return nil, err
	}

	if err := s.store.AddGroupMembers(ctx, req.Msg.GroupID, req.Msg.Members); err != nil {
		slog.Error("AddGroupMembers failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	group, err := s.store.GetGroup(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}

	slog.Info("Group members added", "group_id", group.ID, "members", len(group.Members))
	return connect.NewResponse(&api.AddGroupMembersResponse{Group: toAPIGroup(group)}), nil
}

func (s *GroupService) requireUsers(ctx context.Context, ids []string) error {
	for _, id := range ids {
		ok, err := s.store.UserExists(ctx, id)
		if err != nil {
			return connect.NewError(connect.CodeInternal, err)
		}
		if !ok {
			return connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("unknown user %q", id))
		}
	}
	return nil
}
