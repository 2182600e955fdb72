package feed

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	cache "github.com/hanpama/groupfeed/internal/cache"
	client "github.com/hanpama/groupfeed/internal/client"
)

// DiscussionList shows the latest posts of one group and adds new ones.
type DiscussionList struct {
	client *client.Client
	opt    *Options
}

func NewDiscussionList(c *client.Client, opts ...Option) *DiscussionList {
	return &DiscussionList{client: c, opt: buildOptions(opts)}
}

func (d *DiscussionList) vars() map[string]any {
	return map[string]any{"groupId": d.opt.GroupID}
}

// Load fetches the group's posts. Posts without content are dropped and at
// most Limit posts are kept.
func (d *DiscussionList) Load(ctx context.Context, qopts ...client.QueryOption) State[[]Post] {
	d.opt.notify(Pending)
	st := d.load(ctx, qopts)
	d.opt.notify(st.Status)
	return st
}

func (d *DiscussionList) load(ctx context.Context, qopts []client.QueryOption) State[[]Post] {
	res, err := d.client.Query(ctx, ListPosts, d.vars(), qopts...)
	if err != nil {
		return failed[[]Post](err)
	}
	raw, err := postList(res.Data)
	if err != nil {
		return failed[[]Post](err)
	}
	posts := make([]Post, 0, max(d.opt.Limit, 0))
	for _, item := range raw {
		if d.opt.Limit > 0 && len(posts) == d.opt.Limit {
			break
		}
		if item == nil {
			continue
		}
		p, err := decode[Post](item)
		if err != nil {
			return failed[[]Post](err)
		}
		if p.Content == "" {
			continue
		}
		posts = append(posts, p)
	}
	return ready(posts)
}

// postList returns listPosts.posts of data. A null list is empty.
func postList(data map[string]any) ([]any, error) {
	list, ok := data["listPosts"].(map[string]any)
	if !ok {
		if data["listPosts"] == nil {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: listPosts", ErrMalformed)
	}
	posts, ok := list["posts"].([]any)
	if !ok && list["posts"] != nil {
		return nil, fmt.Errorf("%w: listPosts.posts", ErrMalformed)
	}
	return posts, nil
}

// AddPost publishes content to the group. Unless cache updates are
// disabled, the new post is prepended to the cached listPosts result of the
// group so the next Load shows it first.
func (d *DiscussionList) AddPost(ctx context.Context, content string) (Post, error) {
	vars := map[string]any{"groupId": d.opt.GroupID, "content": content}
	var update client.UpdateFunc
	if !d.opt.DisableCacheUpdate {
		update = d.prependPost
	}
	res, err := d.client.Mutate(ctx, AddPost, vars, update)
	if res == nil {
		return Post{}, err
	}
	p, derr := decode[Post](res.Data["addPost"])
	if derr != nil {
		return Post{}, derr
	}
	return p, err
}

func (d *DiscussionList) prependPost(c *cache.Cache, data map[string]any) error {
	newPost, ok := data["addPost"].(map[string]any)
	if !ok {
		return fmt.Errorf("%w: addPost", ErrMalformed)
	}
	updated, err := c.UpdateQuery(ListPosts, d.vars(), func(cached map[string]any) (map[string]any, error) {
		list, ok := cached["listPosts"].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: cached listPosts", ErrMalformed)
		}
		posts, _ := list["posts"].([]any)
		next := make(map[string]any, len(list))
		for k, v := range list {
			next[k] = v
		}
		next["posts"] = append([]any{newPost}, posts...)
		return map[string]any{"listPosts": next}, nil
	})
	if err != nil {
		return err
	}
	if !updated {
		d.opt.Logger.Debug("listPosts not cached, nothing to update", zap.String("group", d.opt.GroupID))
	}
	return nil
}
