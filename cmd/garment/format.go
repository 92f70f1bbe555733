package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/dlo137/garment-tracker/internal/convert"
	"github.com/dlo137/garment-tracker/internal/model"
	"github.com/dlo137/garment-tracker/internal/tracker"
)

func printFolders(w io.Writer, folders []model.Folder, counts map[uuid.UUID]int) error {
	if len(folders) == 0 {
		_, err := fmt.Fprintln(w, "No folders.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tITEMS\tCREATED")
	for _, f := range folders {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", f.ID, f.Name, counts[f.ID], f.CreatedAt.UTC().Format(time.DateOnly))
	}
	return tw.Flush()
}

func printItems(w io.Writer, items []model.Item) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "No items.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tID\tNAME\tQTY\tDETAILS")
	for i, it := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", i+1, it.ID, it.Name, it.Quantity, details(it))
	}
	return tw.Flush()
}

// details joins the non-empty attributes, e.g. "M, red, Acme".
func details(it model.Item) string {
	var parts []string
	for _, p := range []*string{it.Size, it.Color, it.Brand, it.GarmentType} {
		if v := convert.Deref(p); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, ", ")
}

func printPending(w io.Writer, pending []tracker.Entry) {
	for _, e := range pending {
		fmt.Fprintf(w, "  %s\n", e)
	}
}

// sessionOp is one parsed line of the interactive session.
type sessionOp struct {
	verb  string // adjust, save, revert, list, quit, help
	index int    // 1-based position in the listing
	delta int
}

// parseSessionLine accepts "+N [k]", "-N [k]", "s N", "r N", "ls", "q" and "?".
func parseSessionLine(line string) (sessionOp, error) {
	f := strings.Fields(line)
	if len(f) == 0 {
		return sessionOp{verb: "list"}, nil
	}
	switch f[0] {
	case "ls", "l", "list":
		return sessionOp{verb: "list"}, nil
	case "q", "quit", "exit":
		return sessionOp{verb: "quit"}, nil
	case "?", "h", "help":
		return sessionOp{verb: "help"}, nil
	case "s", "save", "r", "revert":
		if len(f) != 2 {
			return sessionOp{}, fmt.Errorf("usage: %s N", f[0])
		}
		n, err := positive(f[1])
		if err != nil {
			return sessionOp{}, err
		}
		verb := "save"
		if f[0][0] == 'r' {
			verb = "revert"
		}
		return sessionOp{verb: verb, index: n}, nil
	}

	sign := f[0][0]
	if sign != '+' && sign != '-' {
		return sessionOp{}, fmt.Errorf("unknown command %q", f[0])
	}
	n, err := positive(f[0][1:])
	if err != nil {
		return sessionOp{}, err
	}
	step := 1
	if len(f) > 1 {
		if step, err = positive(f[1]); err != nil {
			return sessionOp{}, err
		}
	}
	if sign == '-' {
		step = -step
	}
	return sessionOp{verb: "adjust", index: n, delta: step}, nil
}

func positive(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 || strings.HasPrefix(s, "+") {
		return 0, fmt.Errorf("%q is not a positive number", s)
	}
	return n, nil
}

// parseResolution maps an answer to the exit prompt.
func parseResolution(s string) (tracker.Resolution, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "s", "save", "y", "yes":
		return tracker.Save, true
	case "d", "discard", "n", "no":
		return tracker.Discard, true
	default:
		return 0, false
	}
}

const sessionHelp = `  +N [k]   add k (default 1) to item N
  -N [k]   take k (default 1) from item N
  s N      save item N
  r N      revert item N
  ls       list items
  q        leave the session
`
