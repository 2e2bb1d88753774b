// Command dashboard is a terminal front end for the interview tracker.
//
// Usage:
//
//	dashboard [-server URL] list [-field name|reg|priority|rating] [-q QUERY] [-domain D]
//	dashboard [-server URL] show ID
//	dashboard [-server URL] remark add ID -text T -rating N [-by NAME]
//	dashboard [-server URL] remark edit ID REMARK_ID [-text T] [-rating N] [-by NAME]
//	dashboard [-server URL] remark delete ID REMARK_ID
//
// The server defaults to $TRACKER_URL, then http://localhost:3000. A .env
// file in the working directory is loaded first.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/sakif/interview-tracker/internal/client"
	"github.com/sakif/interview-tracker/internal/filter"
	"github.com/sakif/interview-tracker/internal/model"
	"github.com/sakif/interview-tracker/internal/service"
)

const defaultServer = "http://localhost:3000"

func main() {
	// A missing .env is normal.
	_ = godotenv.Load()

	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			color.Red("error: %s", apiErr.Message)
		} else {
			color.Red("error: %v", err)
		}
		os.Exit(1)
	}
}

// errUsage is returned for malformed command lines; usage has already been printed.
var errUsage = errors.New("invalid usage")

func run(ctx context.Context, args []string, out io.Writer) error {
	global := flag.NewFlagSet("dashboard", flag.ContinueOnError)
	global.SetOutput(out)
	server := global.String("server", envOr("TRACKER_URL", defaultServer), "tracker server base URL")
	timeout := global.Duration("timeout", 10*time.Second, "per-command timeout")
	global.Usage = func() { usage(out) }
	if err := global.Parse(args); err != nil {
		return errUsage
	}

	rest := global.Args()
	if len(rest) == 0 {
		usage(out)
		return errUsage
	}

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()
	api := client.New(*server)

	switch rest[0] {
	case "list":
		return cmdList(ctx, api, rest[1:], out)
	case "show":
		return cmdShow(ctx, api, rest[1:], out)
	case "remark":
		return cmdRemark(ctx, api, rest[1:], out)
	default:
		usage(out)
		return errUsage
	}
}

func usage(w io.Writer) {
	fmt.Fprint(w, `usage:
  dashboard [-server URL] list [-field name|reg|priority|rating] [-q QUERY] [-domain D]
  dashboard [-server URL] show ID
  dashboard [-server URL] remark add ID -text T -rating N [-by NAME]
  dashboard [-server URL] remark edit ID REMARK_ID [-text T] [-rating N] [-by NAME]
  dashboard [-server URL] remark delete ID REMARK_ID
`)
}

func cmdList(ctx context.Context, api *client.Client, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(out)
	fieldName := fs.String("field", "name", "filter field: name, reg, priority or rating")
	query := fs.String("q", "", "filter query")
	domain := fs.String("domain", "", "only candidates in this domain")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	field, err := filter.ParseField(*fieldName)
	if err != nil {
		return err
	}

	all, err := api.List(ctx, *domain)
	if err != nil {
		return err
	}
	renderList(out, filter.Apply(all, field, *query), len(all))
	return nil
}

func cmdShow(ctx context.Context, api *client.Client, args []string, out io.Writer) error {
	if len(args) != 1 {
		usage(out)
		return errUsage
	}
	c, err := api.Get(ctx, args[0])
	if err != nil {
		return err
	}
	renderCandidate(out, c)
	return nil
}

func cmdRemark(ctx context.Context, api *client.Client, args []string, out io.Writer) error {
	if len(args) == 0 {
		usage(out)
		return errUsage
	}

	switch args[0] {
	case "add":
		ids, in, err := parseRemarkFlags("remark add", args[1:], 1, out)
		if err != nil {
			return err
		}
		c, err := api.AddRemark(ctx, ids[0], in)
		if err != nil {
			return err
		}
		color.New(color.FgGreen).Fprintln(out, "remark added")
		renderCandidate(out, c)
		return nil

	case "edit":
		ids, in, err := parseRemarkFlags("remark edit", args[1:], 2, out)
		if err != nil {
			return err
		}
		c, err := api.EditRemark(ctx, ids[0], ids[1], in)
		if err != nil {
			return err
		}
		color.New(color.FgGreen).Fprintln(out, "remark updated")
		renderCandidate(out, c)
		return nil

	case "delete":
		if len(args) != 3 {
			usage(out)
			return errUsage
		}
		c, err := api.DeleteRemark(ctx, args[1], args[2])
		if err != nil {
			return err
		}
		color.New(color.FgGreen).Fprintln(out, "remark deleted")
		renderCandidate(out, c)
		return nil
	}

	usage(out)
	return errUsage
}

// parseRemarkFlags reads positional ids followed by -text, -rating and -by.
// Only flags that were actually given end up in the input, so an edit leaves
// the other fields untouched on the server.
func parseRemarkFlags(name string, args []string, nIDs int, out io.Writer) ([]string, service.RemarkInput, error) {
	var in service.RemarkInput
	if len(args) < nIDs {
		usage(out)
		return nil, in, errUsage
	}
	ids, args := args[:nIDs], args[nIDs:]

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	text := fs.String("text", "", "remark text")
	rating := fs.Float64("rating", 0, "rating from 0 to 10")
	by := fs.String("by", "", "reviewer name")
	if err := fs.Parse(args); err != nil {
		return nil, in, errUsage
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "text":
			in.Text = model.StringOf(*text)
		case "rating":
			in.Rating = model.NumberOf(*rating)
		case "by":
			in.By = model.StringOf(*by)
		}
	})
	return ids, in, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
