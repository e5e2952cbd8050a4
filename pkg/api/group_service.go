package api

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// GroupServiceName is the fully-qualified name of the GroupService.
const GroupServiceName = "splitledger.v1.GroupService"

// Procedure paths, "/" + service name + "/" + method.
const (
	GroupServiceCreateGroupProcedure     = "/" + GroupServiceName + "/CreateGroup"
	GroupServiceGetGroupProcedure        = "/" + GroupServiceName + "/GetGroup"
	GroupServiceListGroupsProcedure      = "/" + GroupServiceName + "/ListGroups"
	GroupServiceAddGroupMembersProcedure = "/" + GroupServiceName + "/AddGroupMembers"
)

// GroupServiceHandler is implemented by the server.
// The group service manages groups and their membership.
type GroupServiceHandler interface {
	CreateGroup(context.Context, *connect.Request[CreateGroupRequest]) (*connect.Response[CreateGroupResponse], error)
	GetGroup(context.Context, *connect.Request[GetGroupRequest]) (*connect.Response[GetGroupResponse], error)
	ListGroups(context.Context, *connect.Request[ListGroupsRequest]) (*connect.Response[ListGroupsResponse], error)
	AddGroupMembers(context.Context, *connect.Request[AddGroupMembersRequest]) (*connect.Response[AddGroupMembersResponse], error)
}

// NewGroupServiceHandler builds an HTTP handler for svc. It returns the path to
// mount the handler on.
func NewGroupServiceHandler(svc GroupServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	mux.Handle(GroupServiceCreateGroupProcedure, connect.NewUnaryHandler(GroupServiceCreateGroupProcedure, svc.CreateGroup, opts...))
	mux.Handle(GroupServiceGetGroupProcedure, connect.NewUnaryHandler(GroupServiceGetGroupProcedure, svc.GetGroup, opts...))
	mux.Handle(GroupServiceListGroupsProcedure, connect.NewUnaryHandler(GroupServiceListGroupsProcedure, svc.ListGroups, opts...))
	mux.Handle(GroupServiceAddGroupMembersProcedure, connect.NewUnaryHandler(GroupServiceAddGroupMembersProcedure, svc.AddGroupMembers, opts...))
	return "/" + GroupServiceName + "/", mux
}

// GroupServiceClient calls a remote GroupService.
type GroupServiceClient interface {
	CreateGroup(context.Context, *connect.Request[CreateGroupRequest]) (*connect.Response[CreateGroupResponse], error)
	GetGroup(context.Context, *connect.Request[GetGroupRequest]) (*connect.Response[GetGroupResponse], error)
	ListGroups(context.Context, *connect.Request[ListGroupsRequest]) (*connect.Response[ListGroupsResponse], error)
	AddGroupMembers(context.Context, *connect.Request[AddGroupMembersRequest]) (*connect.Response[AddGroupMembersResponse], error)
}

type groupServiceClient struct {
	createGroup     *connect.Client[CreateGroupRequest, CreateGroupResponse]
	getGroup        *connect.Client[GetGroupRequest, GetGroupResponse]
	listGroups      *connect.Client[ListGroupsRequest, ListGroupsResponse]
	addGroupMembers *connect.Client[AddGroupMembersRequest, AddGroupMembersResponse]
}

// NewGroupServiceClient returns a client for the service at baseURL,
// e.g. http://localhost:8080.
func NewGroupServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) GroupServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &groupServiceClient{
		createGroup:     connect.NewClient[CreateGroupRequest, CreateGroupResponse](httpClient, baseURL+GroupServiceCreateGroupProcedure, opts...),
		getGroup:        connect.NewClient[GetGroupRequest, GetGroupResponse](httpClient, baseURL+GroupServiceGetGroupProcedure, opts...),
		listGroups:      connect.NewClient[ListGroupsRequest, ListGroupsResponse](httpClient, baseURL+GroupServiceListGroupsProcedure, opts...),
		addGroupMembers: connect.NewClient[AddGroupMembersRequest, AddGroupMembersResponse](httpClient, baseURL+GroupServiceAddGroupMembersProcedure, opts...),
	}
}

func (c *groupServiceClient) CreateGroup(ctx context.Context, req *connect.Request[CreateGroupRequest]) (*connect.Response[CreateGroupResponse], error) {
	return c.createGroup.CallUnary(ctx, req)
}

func (c *groupServiceClient) GetGroup(ctx context.Context, req *connect.Request[GetGroupRequest]) (*connect.Response[GetGroupResponse], error) {
	return c.getGroup.CallUnary(ctx, req)
}

func (c *groupServiceClient) ListGroups(ctx context.Context, req *connect.Request[ListGroupsRequest]) (*connect.Response[ListGroupsResponse], error) {
	return c.listGroups.CallUnary(ctx, req)
}

func (c *groupServiceClient) AddGroupMembers(ctx context.Context, req *connect.Request[AddGroupMembersRequest]) (*connect.Response[AddGroupMembersResponse], error) {
	return c.addGroupMembers.CallUnary(ctx, req)
}
