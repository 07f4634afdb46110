// Command `nwconf` edits New World's key rebindings and user settings, and
// keeps snapshots of the game's configuration directory.
//
// Usage:
//
//	nwconf where                          - Show which files would be edited
//	nwconf show rebindings|settings       - Print the settings tree
//	nwconf set <doc> <node-id> <value>    - Change one value and save
//	nwconf color <node-id> <r> <g> <b> <a> - Change a color setting and save
//	nwconf backup                         - Snapshot the configuration directory
//	nwconf backups                        - List snapshots
//	nwconf restore [snapshot]             - Replace the directory with a snapshot
//	nwconf edit                           - Interactive editor
//
// Loading a document first offers to back up the whole directory; answer
// ahead of time with --backup yes|no.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/lc/nwconf/internal/backup"
	"github.com/lc/nwconf/internal/buildinfo"
	"github.com/lc/nwconf/internal/config"
	"github.com/lc/nwconf/internal/filesys"
	"github.com/lc/nwconf/internal/gameproc"
	"github.com/lc/nwconf/internal/log"
	"github.com/lc/nwconf/internal/model"
	"github.com/lc/nwconf/internal/paths"
	"github.com/lc/nwconf/internal/session"
	"github.com/lc/nwconf/internal/tui"
)

type app struct {
	cfgPath   string
	backup    string
	assumeYes bool

	cfg     *config.Config
	dir     string
	backups *backup.Manager
	game    gameproc.Checker
}

func main() {
	a := &app{}

	root := &cobra.Command{
		Use:   "nwconf",
		Short: "New World configuration manager",
		Long: `nwconf edits New World's key rebindings and user settings without
breaking the game's file format, and keeps timestamped backups of the
whole configuration directory.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(_ *cobra.Command, _ []string) { log.Sync() },
	}
	root.PersistentFlags().StringVar(&a.cfgPath, "config", "", "config file (default ~/.nwconf/config.yaml)")
	root.PersistentFlags().StringVar(&a.backup, "backup", backupAsk, "back up before loading: yes, no or ask")

	// ---- version command ----
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Println(buildinfo.String())
		},
	}

	// ---- where command ----
	whereCmd := &cobra.Command{
		Use:   "where",
		Short: "Show the configuration directory and the files nwconf edits",
		RunE: func(_ *cobra.Command, _ []string) error {
			bold := color.New(color.Bold)
			if a.dir == "" {
				color.Yellow("Config directory not found.")
				return nil
			}
			bold.Print("Config directory: ")
			fmt.Println(a.dir)

			bold.Print("Rebindings:       ")
			if p, err := paths.FindLatestRebindings(filesys.OS(), a.dir); err == nil {
				fmt.Println(p)
			} else {
				color.Yellow("not found")
			}

			bold.Print("User settings:    ")
			us := paths.UserSettingsPath(a.dir)
			if _, err := os.Stat(us); err == nil {
				fmt.Println(us)
			} else {
				color.Yellow("%s (missing)", us)
			}

			bold.Print("Game running:     ")
			if a.game.IsRunning(a.cfg.Game.ProcessName) {
				color.New(color.FgHiRed, color.Bold).Println("yes - changes may be overwritten when the game exits")
			} else {
				color.Green("no")
			}
			if a.cfg.Log.File != "" {
				bold.Print("Log file:         ")
				fmt.Println(a.cfg.Log.File)
			}
			return nil
		},
	}

	// ---- show command ----
	showCmd := &cobra.Command{
		Use:       "show rebindings|settings",
		Short:     "Print the settings tree of a document",
		Example:   "nwconf show settings --backup no",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"rebindings", "settings"},
		RunE: func(_ *cobra.Command, args []string) error {
			kind, err := session.ParseDocKind(args[0])
			if err != nil {
				return err
			}
			ctrl := a.controller(a.prompter())
			res, err := a.load(ctrl, kind)
			if err != nil {
				return err
			}
			color.New(color.Bold).Printf("%s\n", res.Path)
			printTree(ctrl, kind)
			for _, fix := range res.Corrections {
				color.Yellow("%s had an invalid color %q; it will be saved as %q on the next save.", fix.Field, fix.Previous, fix.Value)
			}
			return nil
		},
	}

	// ---- set command ----
	setCmd := &cobra.Command{
		Use:   "set rebindings|settings <node-id> <value>",
		Short: "Change one value and save",
		Long: `Change one value and save the document. Node ids are the ones printed by
"nwconf show". For rebindings the value is the bound input; for settings it
is the raw value attribute.`,
		Example: "nwconf set rebindings 12 keyboard_f",
		Args:    cobra.ExactArgs(3),
		RunE: func(_ *cobra.Command, args []string) error {
			kind, err := session.ParseDocKind(args[0])
			if err != nil {
				return err
			}
			ctrl := a.controller(a.prompter())
			if _, err := a.load(ctrl, kind); err != nil {
				return err
			}
			ref, n, err := lookup(ctrl, args[1])
			if err != nil {
				return err
			}
			if n.Kind != model.KindRebind && n.Kind != model.KindSetting {
				return fmt.Errorf("node %d (%s) is a %s and cannot be set as text", n.ID, n.Name, n.Kind)
			}
			if err := ctrl.ApplyTextEdit(ref, args[2]); err != nil {
				return err
			}
			if err := ctrl.Save(); err != nil {
				return err
			}
			color.New(color.FgGreen, color.Bold).Printf("✓ %s: ", n.Name)
			color.New(color.FgHiYellow).Printf("%s", n.Value)
			color.New(color.FgGreen, color.Bold).Printf(" -> ")
			color.New(color.FgHiGreen, color.Bold).Printf("%s\n", strings.TrimSpace(args[2]))
			a.warnGame(ctrl)
			return nil
		},
	}

	// ---- color command ----
	colorCmd := &cobra.Command{
		Use:   "color <node-id> <r> <g> <b> <a>",
		Short: "Change a color setting and save",
		Long: `Change a color setting in the user settings and save. R, G and B are
0-255, A is 0.00-1.00.`,
		Example: "nwconf color 7 255 0 0 1",
		Args:    cobra.ExactArgs(5),
		RunE: func(_ *cobra.Command, args []string) error {
			ch, err := parseChannels(args[1:])
			if err != nil {
				return err
			}
			ctrl := a.controller(a.prompter())
			if _, err := a.load(ctrl, session.KindUserSettings); err != nil {
				return err
			}
			ref, n, err := lookup(ctrl, args[0])
			if err != nil {
				return err
			}
			if n.Kind != model.KindColor {
				return fmt.Errorf("node %d (%s) is not a color setting", n.ID, n.Name)
			}
			rgba := ch.RGBA()
			if err := ctrl.ApplyColorEdit(ref, rgba); err != nil {
				return err
			}
			if err := ctrl.Save(); err != nil {
				return err
			}
			color.New(color.FgGreen, color.Bold).Printf("✓ %s ", n.Name)
			fmt.Printf("%s %s\n", tui.Swatch(rgba.Swatch()), rgba)
			a.warnGame(ctrl)
			return nil
		},
	}

	// ---- backup command ----
	backupCmd := &cobra.Command{
		Use:   "backup",
		Short: "Snapshot the configuration directory",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctrl := a.controller(a.prompter())
			snap, err := ctrl.Backup()
			if err != nil {
				return err
			}
			files, size, err := a.backups.Usage(snap.Path)
			if err != nil {
				return err
			}
			color.New(color.FgGreen, color.Bold).Printf("✓ Settings backed up to ")
			color.New(color.FgHiGreen, color.Bold).Printf("%s ", snap.Path)
			fmt.Printf("(%d files, %s)\n", files, humanize.Bytes(uint64(size)))
			return nil
		},
	}

	// ---- backups command ----
	backupsCmd := &cobra.Command{
		Use:   "backups",
		Short: "List snapshots, newest first",
		RunE: func(_ *cobra.Command, _ []string) error {
			if a.dir == "" {
				return session.ErrNoConfigDir
			}
			snaps, err := a.backups.List(a.dir)
			if err != nil {
				return err
			}
			if len(snaps) == 0 {
				color.Yellow("No backups found.")
				return nil
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Snapshot", "Created", "Files", "Size"})
			table.SetHeaderColor(
				tablewriter.Colors{tablewriter.Bold, tablewriter.FgHiCyanColor},
				tablewriter.Colors{tablewriter.Bold, tablewriter.FgHiCyanColor},
				tablewriter.Colors{tablewriter.Bold, tablewriter.FgHiCyanColor},
				tablewriter.Colors{tablewriter.Bold, tablewriter.FgHiCyanColor},
			)
			table.SetBorder(false)
			for _, s := range snaps {
				files, size, err := a.backups.Usage(s.Path)
				if err != nil {
					log.Warnf("usage of %s: %v", s.Path, err)
				}
				table.Append([]string{
					s.Path,
					humanize.Time(s.Created),
					strconv.Itoa(files),
					humanize.Bytes(uint64(size)),
				})
			}
			color.New(color.Bold).Println("BACKUPS:")
			table.Render()
			return nil
		},
	}

	// ---- restore command ----
	restoreCmd := &cobra.Command{
		Use:   "restore [snapshot]",
		Short: "Replace the configuration directory with a snapshot",
		Long: `Replace the whole configuration directory with a copy of a snapshot.
Everything currently in the directory is deleted first. Without an
argument you pick from the snapshots next to the directory; any directory
may be given explicitly.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			var snapshot string
			if len(args) == 1 {
				snapshot = args[0]
			}
			ctrl := a.controller(a.prompter())
			if err := ctrl.Restore(snapshot); err != nil {
				var ioErr *backup.IOError
				if errors.As(err, &ioErr) && ioErr.Destructive {
					color.New(color.FgHiRed, color.Bold).Printf("Restore failed after %s was removed. Check it manually.\n", a.dir)
				}
				return err
			}
			color.New(color.FgGreen, color.Bold).Println("✓ " + ctrl.Status())
			a.warnGame(ctrl)
			return nil
		},
	}
	restoreCmd.Flags().BoolVarP(&a.assumeYes, "yes", "y", false, "do not ask for confirmation")

	// ---- edit command ----
	editCmd := &cobra.Command{
		Use:   "edit",
		Short: "Open the interactive editor",
		RunE: func(_ *cobra.Command, _ []string) error {
			answers := tui.NewAnswers()
			return tui.Run(a.controller(answers), answers, a.backups)
		},
	}

	root.AddCommand(whereCmd, showCmd, setCmd, colorCmd, backupCmd, backupsCmd, restoreCmd, editCmd, versionCmd)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup runs before every command. A missing game directory is not an
// error; commands that need it fail later with session.ErrNoConfigDir.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	switch a.backup {
	case backupAsk, backupYes, backupNo:
	default:
		return fmt.Errorf("--backup must be yes, no or ask, got %q", a.backup)
	}

	cfg, err := config.New(a.cfgPath).Load()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	a.cfg = cfg
	if err := log.Configure(cfg.Log.Level, cfg.Log.File); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	log.Debugf("running %s %s", cmd.CommandPath(), buildinfo.Version)

	a.game = gameproc.New()
	a.backups = backup.NewManager(filesys.OS(), backup.WithWorkers(cfg.Backup.CopyWorkers))

	dir, err := paths.ResolveConfigDir(cfg.Game, os.Getenv, filesys.OS())
	if err != nil {
		log.Warnf("resolving config directory: %v", err)
		if cmd.Name() != "version" && cmd.Name() != "where" {
			color.Yellow("Config directory not found: %v", err)
		}
		return nil
	}
	a.dir = dir
	return nil
}

func (a *app) prompter() *terminalPrompter {
	return &terminalPrompter{
		in:        bufio.NewReader(os.Stdin),
		out:       os.Stdout,
		backup:    a.backup,
		assumeYes: a.assumeYes,
		dir:       a.dir,
		backups:   a.backups,
	}
}

func (a *app) controller(p session.Prompter) *session.Controller {
	return session.New(session.Options{
		Dir:         a.dir,
		FS:          filesys.OS(),
		Backups:     a.backups,
		Prompter:    p,
		Game:        a.game,
		ProcessName: a.cfg.Game.ProcessName,
	})
}

func (a *app) load(ctrl *session.Controller, kind session.DocKind) (session.LoadResult, error) {
	res, err := ctrl.Load(kind)
	if err != nil {
		if errors.Is(err, session.ErrCancelled) {
			color.Yellow("Cancelled.")
		} else {
			color.Red("%s", ctrl.Status())
		}
		return res, err
	}
	if res.Snapshot != nil {
		color.New(color.FgGreen).Printf("✓ Backed up to %s\n", res.Snapshot.Path)
	}
	if res.BackupErr != nil {
		color.New(color.FgHiRed).Printf("Backup failed: %v\n", res.BackupErr)
	}
	return res, nil
}

func (a *app) warnGame(ctrl *session.Controller) {
	if ctrl.GameRunning() {
		color.New(color.FgHiRed, color.Bold).Print("WARNING: ")
		color.New(color.FgYellow).Printf("%s is running and may overwrite these changes when it exits.\n", a.cfg.Game.ProcessName)
	}
}

func lookup(ctrl *session.Controller, arg string) (model.Ref, model.Node, error) {
	id, err := strconv.Atoi(arg)
	if err != nil {
		return model.Ref{}, model.Node{}, fmt.Errorf("invalid node id %q", arg)
	}
	ref, ok := ctrl.Tree().Ref(model.NodeID(id))
	if !ok {
		return model.Ref{}, model.Node{}, fmt.Errorf("no node %d (see nwconf show)", id)
	}
	n, _ := ctrl.Tree().Node(ref)
	return ref, n, nil
}

func parseChannels(args []string) (model.Channels, error) {
	var ch model.Channels
	dst := []*int{&ch.R, &ch.G, &ch.B}
	for i, p := range dst {
		v, err := strconv.Atoi(args[i])
		if err != nil || v < 0 || v > 255 {
			return ch, fmt.Errorf("%s must be an integer between 0 and 255, got %q", model.Channel(i), args[i])
		}
		*p = v
	}
	alpha, err := strconv.ParseFloat(args[3], 64)
	if err != nil || alpha < 0 || alpha > 1 {
		return ch, fmt.Errorf("A must be between 0.00 and 1.00, got %q", args[3])
	}
	ch.A = model.ChannelsOf(model.RGBA{A: alpha}).A
	return ch, nil
}

func printTree(ctrl *session.Controller, kind session.DocKind) {
	table := tablewriter.NewWriter(os.Stdout)
	header := []string{"ID", "Setting", "Value"}
	if kind == session.KindRebindings {
		header = []string{"ID", "Action", "Current Binding", "Default Binding"}
	}
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetAutoWrapText(false)

	ctrl.Tree().Walk(func(n model.Node) bool {
		name := strings.Repeat("  ", n.Depth) + n.Name
		value := n.Value
		if n.Kind == model.KindColor {
			value = tui.Swatch(n.Swatch) + " " + n.Value
		}
		row := []string{strconv.Itoa(int(n.ID)), name, value}
		if kind == session.KindRebindings {
			row = append(row, n.Default)
		}
		table.Append(row)
		return true
	})
	table.Render()
}
