package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	cache "github.com/hanpama/groupfeed/internal/cache"
	client "github.com/hanpama/groupfeed/internal/client"
	config "github.com/hanpama/groupfeed/internal/config"
	eventbus "github.com/hanpama/groupfeed/internal/eventbus"
	feed "github.com/hanpama/groupfeed/internal/feed"
	introspection "github.com/hanpama/groupfeed/internal/introspection"
	link "github.com/hanpama/groupfeed/internal/link"
	logging "github.com/hanpama/groupfeed/internal/logging"
	otel "github.com/hanpama/groupfeed/internal/otel"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.LookupEnv); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, stdout io.Writer, lookup config.LookupFunc) error {
	a := &app{out: stdout}
	root := a.rootCmd(lookup)
	root.SetArgs(args)
	err := root.Execute()
	return errors.Join(err, a.close())
}

type flags struct {
	configPath    string
	endpoint      string
	token         string
	logLevel      string
	otelEndpoint  string
	groupID       string
	limit         int
	noCacheUpdate bool
	cacheFile     string
	fragmentTypes string
}

// app holds what every command shares for one invocation.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	cache    *cache.Cache
	client   *client.Client
	shutdown func(context.Context) error
	out      io.Writer
}

func (a *app) rootCmd(lookup config.LookupFunc) *cobra.Command {
	var f flags

	root := &cobra.Command{
		Use:           "groupfeed",
		Short:         "Browse groups and discussions of the feed API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd, &f, lookup)
		},
	}
	root.SetOut(a.out)

	pf := root.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "YAML config file")
	pf.StringVar(&f.endpoint, "endpoint", "", "GraphQL endpoint URL")
	pf.StringVar(&f.token, "token", "", "bearer token (or "+config.EnvToken+")")
	pf.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.StringVar(&f.otelEndpoint, "otel-endpoint", "", "OTLP collector host:port")
	pf.StringVar(&f.groupID, "group", "", "group whose discussion is shown")
	pf.IntVar(&f.limit, "limit", 0, "number of posts shown")
	pf.BoolVar(&f.noCacheUpdate, "no-cache-update", false, "do not patch cached posts after posting")
	pf.StringVar(&f.cacheFile, "cache-file", "", "persist the cache in this file between runs")
	pf.StringVar(&f.fragmentTypes, "fragment-types", "", "introspection JSON with the fragment type map")

	root.AddCommand(
		a.groupsCmd(),
		a.membershipCmd("join", "Join a group"),
		a.membershipCmd("leave", "Leave a group"),
		a.postsCmd(),
		a.postCmd(),
		a.fragmentTypesCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, f *flags, lookup config.LookupFunc) error {
	cfg, err := config.Load(f.configPath, lookup)
	if err != nil {
		return err
	}
	pf := cmd.Flags()
	override := func(name string, dst *string, v string) {
		if pf.Changed(name) {
			*dst = v
		}
	}
	override("endpoint", &cfg.Endpoint, f.endpoint)
	override("token", &cfg.Token, f.token)
	override("log-level", &cfg.Log.Level, f.logLevel)
	override("otel-endpoint", &cfg.OTel.Endpoint, f.otelEndpoint)
	override("group", &cfg.GroupID, f.groupID)
	override("cache-file", &cfg.CacheFile, f.cacheFile)
	if pf.Changed("limit") {
		cfg.PostLimit = f.limit
	}
	if pf.Changed("no-cache-update") {
		cfg.DisableCacheUpdate = f.noCacheUpdate
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	if a.logger, err = logging.New(cfg.Log.Level, cfg.Log.Development); err != nil {
		return err
	}
	eventbus.Use(eventbus.New())
	if a.shutdown, err = otel.Setup(cfg.OTel.Endpoint, cfg.OTel.Service); err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	if cfg.Token == "" {
		a.logger.Warn("no token configured, requests are unauthenticated", zap.String("env", config.EnvToken))
	}

	var possible map[string][]string
	if f.fragmentTypes != "" {
		raw, err := os.ReadFile(f.fragmentTypes)
		if err != nil {
			return fmt.Errorf("read fragment types: %w", err)
		}
		res, err := introspection.Parse(raw)
		if err != nil {
			return fmt.Errorf("parse fragment types: %w", err)
		}
		possible = res.PossibleTypes()
	}
	if a.cache, err = feed.NewCache(possible, cache.WithLogger(a.logger)); err != nil {
		return fmt.Errorf("build cache: %w", err)
	}
	if err := a.restore(); err != nil {
		return err
	}

	h, err := link.NewPipeline(cfg.Endpoint, link.Auth(cfg.Token, cfg.Referer), a.logger, link.WithTimeout(cfg.Timeout))
	if err != nil {
		return err
	}
	a.client = client.New(a.cache, h, client.WithLogger(a.logger))
	return nil
}

func (a *app) restore() error {
	if a.cfg.CacheFile == "" {
		return nil
	}
	raw, err := os.ReadFile(a.cfg.CacheFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read cache file: %w", err)
	}
	if err := a.cache.Restore(raw); err != nil {
		a.logger.Warn("ignoring unreadable cache file", zap.String("path", a.cfg.CacheFile), zap.Error(err))
	}
	return nil
}

// close saves the cache and flushes telemetry. It is safe to call when
// setup did not complete.
func (a *app) close() error {
	var errs []error
	if a.cache != nil && a.cfg.CacheFile != "" {
		snap, err := a.cache.Extract()
		if err == nil {
			err = os.WriteFile(a.cfg.CacheFile, snap, 0o600)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("save cache: %w", err))
		}
	}
	if a.shutdown != nil {
		errs = append(errs, a.shutdown(context.Background()))
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	eventbus.Use(nil)
	return errors.Join(errs...)
}

func (a *app) viewOptions() []feed.Option {
	opts := []feed.Option{
		feed.WithLogger(a.logger),
		feed.WithGroupID(a.cfg.GroupID),
		feed.WithLimit(a.cfg.PostLimit),
	}
	if a.cfg.DisableCacheUpdate {
		opts = append(opts, feed.WithoutCacheUpdate())
	}
	return opts
}

// show prints a rendered view and turns a failed state into the command's
// error.
func show[T any](a *app, st feed.State[T], render func(feed.State[T]) string) error {
	fmt.Fprintln(a.out, render(st))
	if st.Status == feed.Failed {
		return st.Err
	}
	return nil
}

func (a *app) groupsCmd() *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "groups",
		Short: "List my groups and the groups I can join",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var qopts []client.QueryOption
			if refresh {
				qopts = append(qopts, client.WithFetchPolicy(client.NetworkOnly))
			}
			gl := feed.NewGroupList(a.client, a.viewOptions()...)
			return show(a, gl.Load(cmd.Context(), qopts...), feed.RenderGroups)
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the cache")
	return cmd
}

func (a *app) membershipCmd(use, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <group-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gl := feed.NewGroupList(a.client, a.viewOptions()...)
			ctx := cmd.Context()
			var err error
			if use == "join" {
				_, err = gl.Join(ctx, args[0])
			} else {
				_, err = gl.Leave(ctx, args[0])
			}
			if err != nil && !errors.Is(err, client.ErrCacheUpdate) {
				return err
			}
			if err != nil {
				a.logger.Warn("membership changed, cached groups may be stale", zap.Error(err))
			}
			return show(a, gl.Load(ctx), feed.RenderGroups)
		},
	}
}

func (a *app) postsCmd() *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "Show the latest posts of the group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var qopts []client.QueryOption
			if refresh {
				qopts = append(qopts, client.WithFetchPolicy(client.NetworkOnly))
			}
			dl := feed.NewDiscussionList(a.client, a.viewOptions()...)
			return show(a, dl.Load(cmd.Context(), qopts...), feed.RenderPosts)
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the cache")
	return cmd
}

func (a *app) postCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "post <content>",
		Short: "Add a post to the group",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content := strings.Join(args, " ")
			fmt.Fprintln(a.out, feed.RenderEditor(content))
			dl := feed.NewDiscussionList(a.client, a.viewOptions()...)
			ctx := cmd.Context()
			if _, err := dl.AddPost(ctx, content); err != nil {
				if !errors.Is(err, client.ErrCacheUpdate) {
					return err
				}
				a.logger.Warn("post added, cached posts may be stale", zap.Error(err))
			}
			return show(a, dl.Load(ctx), feed.RenderPosts)
		},
	}
}

func (a *app) fragmentTypesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fragment-types",
		Short: "Print the fragment type map of the feed schema as introspection JSON",
		Args:  cobra.NoArgs,
		// prints embedded data, so it skips setup
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(*cobra.Command, []string) error {
			res, err := feed.FragmentTypes()
			if err != nil {
				return err
			}
			out, err := res.Marshal()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.out, string(out))
			return err
		},
	}
}
