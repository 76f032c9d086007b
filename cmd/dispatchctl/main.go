package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"examhub/dispatch/core"
	"examhub/dispatch/utils/config"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "dispatchctl"
	app.HelpName = "dispatchctl"
	app.Usage = "Inspect how Dispatch routes logical API paths"

	app.Flags = []cli.Flag{
		&cli.StringFlag{Name: "routes", Aliases: []string{"r"}, EnvVars: []string{"DISPATCH_ROUTES_FILE"}, Usage: "routing table file (built-in table when empty)"},
	}
	app.Commands = []*cli.Command{
		resolveCommand(),
		buildCommand(),
		statusCommand(),
	}
	return app
}

func resolveCommand() *cli.Command {
	return &cli.Command{
		Name:      "resolve",
		Usage:     "Show how a logical path is routed",
		ArgsUsage: "<path>",
		Action:    resolveAction,
	}
}

func resolveAction(ctx *cli.Context) error {
	path := ctx.Args().First()
	if path == "" {
		return errors.New("resolve needs a logical path")
	}
	rtr, _, err := loadRouter(ctx.String("routes"))
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(rtr.Resolve(path), "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(ctx.App.Writer, string(out))
	return nil
}

func buildCommand() *cli.Command {
	return &cli.Command{
		Name:   "build",
		Usage:  "Build a backend URL from a path template",
		Action: buildAction,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "template", Aliases: []string{"t"}, Required: true, Usage: "path template, e.g. /api/users/{userId}"},
			&cli.StringSliceFlag{Name: "param", Aliases: []string{"p"}, Usage: "path parameter as key=value"},
			&cli.StringSliceFlag{Name: "query", Aliases: []string{"q"}, Usage: "query parameter as key=value, repeatable"},
		},
	}
}

func buildAction(ctx *cli.Context) error {
	params, err := parsePairs(ctx.StringSlice("param"))
	if err != nil {
		return err
	}
	query, err := parsePairs(ctx.StringSlice("query"))
	if err != nil {
		return err
	}
	rtr, _, err := loadRouter(ctx.String("routes"))
	if err != nil {
		return err
	}

	url, err := rtr.BuildAPIURLWithParams(ctx.String("template"), params, query)
	if err != nil {
		return err
	}
	fmt.Fprintln(ctx.App.Writer, url)
	return nil
}

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Probe every service once and print the health table",
		Action: statusAction,
		Flags: []cli.Flag{
			&cli.DurationFlag{Name: "timeout", Value: core.DefaultProbeTimeout, Usage: "per-probe timeout"},
		},
	}
}

func statusAction(ctx *cli.Context) error {
	timeout := ctx.Duration("timeout")
	rtr, monitor, err := loadRouterWithTimeout(ctx.String("routes"), timeout)
	if err != nil {
		return err
	}

	probeCtx, cancel := context.WithTimeout(ctx.Context, timeout+time.Second)
	defer cancel()
	monitor.CheckAll(probeCtx)

	statuses := monitor.Statuses()
	w := tabwriter.NewWriter(ctx.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SERVICE\tHEALTHY\tPROBED\tBASE ADDRESS")
	for _, d := range rtr.Registry().All() {
		st := statuses[d.Name]
		fmt.Fprintf(w, "%s\t%v\t%v\t%s\n", d.Name, st.Healthy, st.Probed, d.BaseAddress)
	}
	return w.Flush()
}

func loadRouter(routesFile string) (*core.APIRouter, *core.HealthMonitor, error) {
	return loadRouterWithTimeout(routesFile, 0)
}

func loadRouterWithTimeout(routesFile string, timeout time.Duration) (*core.APIRouter, *core.HealthMonitor, error) {
	routes, err := config.LoadRouting(routesFile)
	if err != nil {
		return nil, nil, err
	}
	reg, err := core.NewServiceRegistry(routes.Descriptors())
	if err != nil {
		return nil, nil, err
	}
	monitor := core.NewHealthMonitor(reg, 0, timeout, nil)
	rtr, err := core.NewAPIRouter(core.RouterOptions{
		Registry:        reg,
		Health:          monitor,
		Failover:        routes.Failover,
		DeprecatedPaths: routes.DeprecatedPaths,
		DefaultService:  routes.DefaultService,
	})
	if err != nil {
		return nil, nil, err
	}
	return rtr, monitor, nil
}

// parsePairs turns key=value flags into a parameter map. Repeated keys
// collect into a slice, which the query encoder expands.
func parsePairs(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q, want key=value", pair)
		}
		switch prev := out[key].(type) {
		case nil:
			out[key] = value
		case string:
			out[key] = []string{prev, value}
		case []string:
			out[key] = append(prev, value)
		}
	}
	return out, nil
}
