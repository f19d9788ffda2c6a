package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/stuarthighley/wadmap"
	"github.com/stuarthighley/wadmap/behavior"
)

var (
	configPath string
	logLevel   string
	logFormat  string
	opts       = wadmap.DefaultOptions()
)

func newLogger(level, format string) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(lvl)

	return zapCfg.Build()
}

func openWAD(path string) *wadmap.WAD {
	w, err := wadmap.Open(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return w
}

func readLevel(args []string) *wadmap.Level {
	w := openWAD(args[0])
	defer w.Close()
	l, err := w.ReadLevel(args[1], opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return l
}

var levelsCmd = &cobra.Command{
	Use:   "levels <wad>",
	Short: "List the levels of a WAD",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		w := openWAD(args[0])
		defer w.Close()
		for _, name := range w.LevelNames() {
			lumps, err := w.LevelLumps(name)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				continue
			}
			fmt.Printf("%-8s %-6s %s\n", name, lumps.Dialect, strings.Join(lumps.Names(), " "))
		}
	},
}

var loadCmd = &cobra.Command{
	Use:   "load <wad> <map>",
	Short: "Load a level and print a summary",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		l := readLevel(args)
		fmt.Println("     Map:", l.Name)
		fmt.Println(" Dialect:", l.Dialect)
		fmt.Println("Vertexes:", len(l.Vertexes))
		fmt.Println("   Lines:", len(l.Lines), "skipped", l.SkippedLines)
		fmt.Println("   Sides:", len(l.Sides))
		fmt.Println(" Sectors:", len(l.Sectors))
		fmt.Println("  Things:", len(l.Things))
		fmt.Println("     BSP:", l.BSPState, "nodes", len(l.Nodes), "subsectors", len(l.SubSectors), "segs", len(l.Segs))
		if l.BlockMap != nil {
			fmt.Printf("Blockmap: %dx%d at (%g,%g)\n", l.BlockMap.Columns, l.BlockMap.Rows, l.BlockMap.OriginX, l.BlockMap.OriginY)
		} else {
			fmt.Println("Blockmap: needs build")
		}
		fmt.Println("  Reject:", !l.Reject.Empty())
		if l.Behavior != nil {
			fmt.Println("Behavior:", l.Behavior.Format, "scripts", len(l.Behavior.Scripts))
		}
		if len(l.Warnings) > 0 {
			fmt.Println("Warnings:")
			for _, w := range l.Warnings {
				fmt.Println("  ", w)
			}
		}
	},
}

var treeCmd = &cobra.Command{
	Use:   "tree <wad> <map>",
	Short: "Print the BSP tree of a level",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		l := readLevel(args)
		if err := l.PrintTree(os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	},
}

var behaviorCmd = &cobra.Command{
	Use:   "behavior <wad> <map>",
	Short: "Print the scripts and strings of a level's ACS module",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		w := openWAD(args[0])
		defer w.Close()
		lumps, err := w.LevelLumps(args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		data, ok := lumps.Lump(wadmap.LumpBehavior)
		if !ok {
			fmt.Fprintln(os.Stderr, "level has no BEHAVIOR lump")
			os.Exit(1)
		}
		m, err := behavior.Parse(data)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println("Format:", m.Format)
		fmt.Println("Scripts:")
		for _, s := range m.Scripts {
			fmt.Printf("  %5d type %2d args %d vars %2d flags %#04x @ %d\n", s.Number, s.Type, s.ArgCount, s.VarCount, s.Flags, s.Address)
		}
		fmt.Println("Strings:")
		for i, s := range m.Strings {
			fmt.Printf("  %4d %q\n", i, s)
		}
	},
}

var rootCmd = &cobra.Command{
	Use:   "wadmap",
	Short: "wadmap inspects Doom engine levels.",
	Long:  `wadmap lists the levels of a WAD and loads them in the Doom, Hexen or UDMF formats.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger(logLevel, logFormat)
		if err != nil {
			return err
		}
		wadmap.SetLogger(logger)
		behavior.SetLogger(logger)
		if configPath != "" {
			opts, err = wadmap.LoadOptions(configPath)
			if err != nil {
				return err
			}
		}
		return nil
	},
}

func main() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML file of load options")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log format, console or json")
	rootCmd.AddCommand(levelsCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(behaviorCmd)
}
