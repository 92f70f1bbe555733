// Command garment manages a clothing inventory stored in Postgres.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dlo137/garment-tracker/internal/config"
	"github.com/dlo137/garment-tracker/internal/convert"
	"github.com/dlo137/garment-tracker/internal/identity"
	"github.com/dlo137/garment-tracker/internal/migrate"
	"github.com/dlo137/garment-tracker/internal/model"
	"github.com/dlo137/garment-tracker/internal/service"
	"github.com/dlo137/garment-tracker/internal/tracker"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// withApp runs fn with a connected, loaded app and a signal-aware context.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx, stop := commandContext(cmd)
	defer stop()
	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func parseID(s string) (uuid.UUID, error) {
	id, err := uuid.FromString(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q: %w", s, err)
	}
	return id, nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "garment",
		Short:        "Clothing inventory client",
		SilenceUsage: true,
	}
	pf := root.PersistentFlags()
	pf.String("config", "", "config file (default "+config.DefaultPath()+")")
	pf.StringSlice("env", nil, "dotenv files to load (default .env)")
	pf.String("database-url", "", "Postgres connection string")
	pf.String("log-level", "", "debug, info, warn or error")

	root.AddCommand(
		newVersionCmd(),
		newConfigCmd(),
		newLoginCmd(),
		newMigrateCmd(),
		newFoldersCmd(),
		newItemsCmd(),
		newImportCmd(),
		newSessionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "garment %s (%s)\n", version, buildDate)
		},
	}
}

// config command
func newConfigCmd() *cobra.Command {
	c := &cobra.Command{Use: "config", Short: "Manage configuration"}
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			if path == "" {
				path = config.DefaultPath()
			}
			cfg := config.Default()
			cfg.DatabaseURL, _ = cmd.Flags().GetString("database-url")
			if err := config.Init(path, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration initialized at %s\n", path)
			return nil
		},
	}
	c.AddCommand(initCmd)
	return c
}

// login stores an access token issued by the auth provider.
func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login TOKEN",
		Short: "Save an access token as the current session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := readConfig(cmd)
			if err != nil {
				return err
			}
			sf, sub, err := sessionFromToken(args[0], time.Now())
			if err != nil {
				return err
			}
			if err := identity.Save(cfg.SessionPath, sf); err != nil {
				return fmt.Errorf("saving session: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", sub)
			return nil
		},
	}
}

// sessionFromToken reads sub and exp without verifying; verification happens on use.
func sessionFromToken(raw string, now time.Time) (identity.SessionFile, string, error) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return identity.SessionFile{}, "", fmt.Errorf("parse token: %w", err)
	}
	if claims.Subject == "" {
		return identity.SessionFile{}, "", errors.New("token has no subject")
	}
	exp := now.Add(time.Hour)
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}
	return identity.SessionFile{AccessToken: raw, ExpiresAt: exp}, claims.Subject, nil
}

// migrate command
func newMigrateCmd() *cobra.Command {
	c := &cobra.Command{Use: "migrate", Short: "Manage the database schema"}
	c.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				ctx, stop := commandContext(cmd)
				defer stop()
				n, err := migrate.Up(ctx, cfg.DatabaseURL)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s)\n", n)
				return nil
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the schema version",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				ctx, stop := commandContext(cmd)
				defer stop()
				v, err := migrate.Version(ctx, cfg.DatabaseURL)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Schema version %d\n", v)
				return nil
			},
		},
	)
	return c
}

// folders command
func newFoldersCmd() *cobra.Command {
	c := &cobra.Command{Use: "folders", Short: "Manage folders"}
	c.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List folders, newest first",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(cmd, func(ctx context.Context, a *app) error {
					return printFolders(cmd.OutOrStdout(), a.inv.Folders(), a.inv.FolderCounts())
				})
			},
		},
		&cobra.Command{
			Use:   "add NAME",
			Short: "Create a folder",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				name, err := service.ValidateFolderName(args[0])
				if err != nil {
					return err
				}
				return withApp(cmd, func(ctx context.Context, a *app) error {
					ctx, cancel := a.withTimeout(ctx)
					defer cancel()
					f, err := a.inv.AddFolder(ctx, name)
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), f.ID)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "rm ID",
			Short: "Delete a folder and all of its items",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				return withApp(cmd, func(ctx context.Context, a *app) error {
					n := len(a.inv.ItemsInFolder(id))
					ctx, cancel := a.withTimeout(ctx)
					defer cancel()
					if err := a.inv.DeleteFolder(ctx, id); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Deleted folder %s (%d items)\n", id, n)
					return nil
				})
			},
		},
	)
	return c
}

// itemFlags registers the manual-entry fields.
func itemFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("name", "", "item name")
	f.String("quantity", "", "quantity (positive)")
	f.String("brand", "", "brand")
	f.String("color", "", "color")
	f.String("type", "", "garment type")
	f.String("size", "", "size")
	f.String("notes", "", "notes")
	f.String("image", "", "image URI")
}

// itemInput builds form input from flags, keeping base values for flags not given.
func itemInput(cmd *cobra.Command, base service.ItemInput) service.ItemInput {
	f := cmd.Flags()
	set := func(dst *string, name string) {
		if f.Changed(name) {
			*dst, _ = f.GetString(name)
		}
	}
	set(&base.Name, "name")
	set(&base.Quantity, "quantity")
	set(&base.Brand, "brand")
	set(&base.Color, "color")
	set(&base.GarmentType, "type")
	set(&base.Size, "size")
	set(&base.Notes, "notes")
	set(&base.ImageURI, "image")
	return base
}

func inputFromDraft(d model.ItemDraft) service.ItemInput {
	return service.ItemInput{
		Name:        d.Name,
		Quantity:    strconv.Itoa(d.Quantity),
		Brand:       d.Brand,
		Color:       d.Color,
		GarmentType: d.GarmentType,
		Size:        d.Size,
		Notes:       d.Notes,
		ImageURI:    d.ImageURI,
	}
}

// items command
func newItemsCmd() *cobra.Command {
	c := &cobra.Command{Use: "items", Short: "Manage items"}

	list := &cobra.Command{
		Use:   "list [FOLDER_ID]",
		Short: "List items, optionally of one folder",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var folder uuid.UUID
			if len(args) == 1 {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				folder = id
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				items := a.inv.Items()
				if folder != uuid.Nil {
					items = a.inv.ItemsInFolder(folder)
				}
				return printItems(cmd.OutOrStdout(), items)
			})
		},
	}

	add := &cobra.Command{
		Use:   "add FOLDER_ID",
		Short: "Add an item to a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			folder, err := parseID(args[0])
			if err != nil {
				return err
			}
			d, err := service.ParseItemInput(itemInput(cmd, service.ItemInput{}))
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				ctx, cancel := a.withTimeout(ctx)
				defer cancel()
				it, err := a.inv.AddItem(ctx, folder, d)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), it.ID)
				return nil
			})
		},
	}
	itemFlags(add)

	edit := &cobra.Command{
		Use:   "edit ID",
		Short: "Edit an item; fields not given keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				cur, ok := a.inv.Item(id)
				if !ok {
					return fmt.Errorf("item %s not found", id)
				}
				d, err := service.ParseItemInput(itemInput(cmd, inputFromDraft(convert.DraftFromItem(cur))))
				if err != nil {
					return err
				}
				ctx, cancel := a.withTimeout(ctx)
				defer cancel()
				it, err := a.inv.UpdateItem(ctx, id, d)
				if err != nil {
					return err
				}
				if cmd.Flags().Changed("image") {
					if it, err = a.inv.UpdateItemImage(ctx, id, d.ImageURI); err != nil {
						return err
					}
				}
				return printItems(cmd.OutOrStdout(), []model.Item{it})
			})
		},
	}
	itemFlags(edit)

	rm := &cobra.Command{
		Use:   "rm ID",
		Short: "Delete an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				ctx, cancel := a.withTimeout(ctx)
				defer cancel()
				return a.inv.DeleteItem(ctx, id)
			})
		},
	}

	image := &cobra.Command{
		Use:   "image ID URI",
		Short: "Set the image of an item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				ctx, cancel := a.withTimeout(ctx)
				defer cancel()
				_, err := a.inv.UpdateItemImage(ctx, id, args[1])
				return err
			})
		},
	}

	c.AddCommand(list, add, edit, rm, image)
	return c
}

// import command
func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Import items from an .xlsx, .xls or .csv file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			return withApp(cmd, func(ctx context.Context, a *app) error {
				res, err := service.NewImporter(a.inv).ImportFile(ctx, filepath.Base(args[0]), f)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d item(s) into %d folder(s)\n",
					res.ItemsInserted, res.FoldersCreatedOrUpdated)
				return nil
			})
		},
	}
}

// session command
func newSessionCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "session FOLDER_ID",
		Short: "Adjust quantities in a folder interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			folder, err := parseID(args[0])
			if err != nil {
				return err
			}
			onExit, _ := cmd.Flags().GetString("on-exit")
			if onExit != "" {
				if _, ok := parseResolution(onExit); !ok {
					return fmt.Errorf("--on-exit must be save or discard, got %q", onExit)
				}
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				fs, err := a.inv.OpenFolder(folder)
				if err != nil {
					return err
				}
				interactive := term.IsTerminal(int(os.Stdin.Fd()))
				return runSession(ctx, a, fs, cmd.InOrStdin(), cmd.OutOrStdout(), onExit, interactive)
			})
		},
	}
	c.Flags().String("on-exit", "", "resolve unsaved edits without asking: save or discard")
	return c
}

func runSession(ctx context.Context, a *app, fs *service.FolderSession, in io.Reader, out io.Writer, onExit string, interactive bool) error {
	sc := bufio.NewScanner(in)
	if err := printItems(out, fs.Items()); err != nil {
		return err
	}
	for {
		fmt.Fprint(out, "> ")
		if !sc.Scan() {
			break
		}
		op, err := parseSessionLine(sc.Text())
		if err != nil {
			fmt.Fprintln(out, err)
			continue
		}
		if op.verb == "quit" {
			break
		}
		if err := applySessionOp(ctx, a, fs, op, out); err != nil {
			fmt.Fprintln(out, err)
		}
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	res, err := fs.Exit(ctx, exitPrompter(sc, out, onExit, interactive))
	if res != 0 {
		fmt.Fprintf(out, "Unsaved changes: %s\n", res)
	}
	return err
}

func applySessionOp(ctx context.Context, a *app, fs *service.FolderSession, op sessionOp, out io.Writer) error {
	switch op.verb {
	case "list":
		if err := printItems(out, fs.Items()); err != nil {
			return err
		}
		if p := fs.Pending(); len(p) > 0 {
			fmt.Fprintln(out, "Unsaved:")
			printPending(out, p)
		}
		return nil
	case "help":
		_, err := fmt.Fprint(out, sessionHelp)
		return err
	}

	items := fs.Items()
	if op.index < 1 || op.index > len(items) {
		return fmt.Errorf("no item #%d", op.index)
	}
	it := items[op.index-1]

	switch op.verb {
	case "adjust":
		q, err := fs.Adjust(it.ID, op.delta)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: %d\n", it.Name, q)
	case "save":
		ctx, cancel := a.withTimeout(ctx)
		defer cancel()
		if err := fs.Save(ctx, it.ID); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s saved\n", it.Name)
	case "revert":
		if err := fs.Revert(it.ID); err != nil {
			return err
		}
		cur, _ := a.inv.Item(it.ID)
		fmt.Fprintf(out, "%s: %d\n", it.Name, cur.Quantity)
	}
	return nil
}

// exitPrompter resolves pending edits from --on-exit or by asking on the terminal.
func exitPrompter(sc *bufio.Scanner, out io.Writer, onExit string, interactive bool) tracker.Prompter {
	return func(ctx context.Context, pending []tracker.Entry) (tracker.Resolution, error) {
		if onExit != "" {
			r, _ := parseResolution(onExit)
			return r, nil
		}
		if !interactive {
			return 0, errors.New("unsaved edits and no terminal; pass --on-exit save|discard")
		}
		fmt.Fprintf(out, "%d unsaved change(s):\n", len(pending))
		printPending(out, pending)
		for {
			fmt.Fprint(out, "Save or discard? [s/d] ")
			if !sc.Scan() {
				return 0, io.ErrUnexpectedEOF
			}
			if r, ok := parseResolution(sc.Text()); ok {
				return r, nil
			}
		}
	}
}
