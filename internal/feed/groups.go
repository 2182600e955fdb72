package feed

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	client "github.com/hanpama/groupfeed/internal/client"
	language "github.com/hanpama/groupfeed/internal/language"
)

// GroupSections splits groups by membership, keeping result order.
type GroupSections struct {
	Mine   []Group
	Others []Group
}

// Partition places each group in Mine when the viewer is a member and in
// Others otherwise.
func Partition(groups []Group) GroupSections {
	var s GroupSections
	for _, g := range groups {
		if g.IsMember {
			s.Mine = append(s.Mine, g)
		} else {
			s.Others = append(s.Others, g)
		}
	}
	return s
}

// GroupList shows the viewer's groups and the groups they can join.
type GroupList struct {
	client *client.Client
	opt    *Options
}

func NewGroupList(c *client.Client, opts ...Option) *GroupList {
	return &GroupList{client: c, opt: buildOptions(opts)}
}

// Load fetches listGroups and partitions the result.
func (l *GroupList) Load(ctx context.Context, qopts ...client.QueryOption) State[GroupSections] {
	l.opt.notify(Pending)
	st := l.load(ctx, qopts)
	l.opt.notify(st.Status)
	return st
}

func (l *GroupList) load(ctx context.Context, qopts []client.QueryOption) State[GroupSections] {
	res, err := l.client.Query(ctx, ListGroups, nil, qopts...)
	if err != nil {
		return failed[GroupSections](err)
	}
	raw, ok := res.Data["listGroups"].([]any)
	if !ok && res.Data["listGroups"] != nil {
		return failed[GroupSections](fmt.Errorf("%w: listGroups", ErrMalformed))
	}
	groups := make([]Group, 0, len(raw))
	for _, item := range raw {
		if item == nil {
			continue
		}
		g, err := decode[Group](item)
		if err != nil {
			return failed[GroupSections](err)
		}
		groups = append(groups, g)
	}
	return ready(Partition(groups))
}

// Join makes the viewer a member of groupID. The cached group entity takes
// the returned membership flag, so the next Load reflects it without a
// refetch.
func (l *GroupList) Join(ctx context.Context, groupID string) (Group, error) {
	return l.membership(ctx, JoinGroup, "joinGroup", groupID)
}

// Leave ends the viewer's membership of groupID.
func (l *GroupList) Leave(ctx context.Context, groupID string) (Group, error) {
	return l.membership(ctx, LeaveGroup, "leaveGroup", groupID)
}

func (l *GroupList) membership(ctx context.Context, doc *language.Document, field, groupID string) (Group, error) {
	res, err := l.client.Mutate(ctx, doc, map[string]any{"groupId": groupID}, nil)
	if res == nil {
		return Group{}, err
	}
	g, derr := decode[Group](res.Data[field])
	if derr != nil {
		return Group{}, derr
	}
	if err != nil {
		l.opt.Logger.Warn("membership changed but cache not updated", zap.String("group", groupID), zap.Error(err))
	}
	return g, err
}
