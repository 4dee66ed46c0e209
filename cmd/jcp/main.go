package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	goversion "github.com/caarlos0/go-version"

	"github.com/origadmin/classpath/internal/config"
)

var (
	version    = "0.0.1"
	commit     = ""
	treeState  = ""
	date       = ""
	builtBy    = ""
	debug      = flag.Bool("debug", false, "Enable debug logging")
	logFile    = flag.String("log-file", "", "Path to a file where logs should be written. If empty, logs go to stderr.")
	envFile    = flag.String("env-file", "", "Read settings from a dotenv file before the process environment.")
	classPath  = flag.String("cp", "", "User classpath. Overrides CLASSPATH.")
	extPath    = flag.String("ext", "", "Extension classpath added on top of the system classpath.")
	bootLib    = flag.String("boot", "", "Boot library archive. Overrides discovery under JAVA_HOME.")
	corePrefix = flag.String("core-prefix", "", "Namespace of pinned core types.")
	accessible = flag.Bool("accessible", false, "Allow resolving non-public members.")
)

func main() {
	flag.Usage = usage
	flag.Parse()

	var logWriter *os.File
	if *logFile != "" {
		var err error
		logWriter, err = os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			slog.Error("Failed to open log file", "file", *logFile, "error", err)
			os.Exit(1)
		}
		defer logWriter.Close()
	} else {
		logWriter = os.Stderr
	}

	logLevel := slog.LevelWarn
	if *debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: logLevel,
	})))

	args := flag.Args()
	if len(args) == 0 || args[0] == "version" {
		v := buildVersion(version, commit, date, builtBy, treeState)
		fmt.Println(v.String())
		if len(args) == 0 {
			usage()
		}
		return
	}

	cfg, err := loadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := run(cfg, os.Stdout, args[0], args[1:]); err != nil {
		slog.Error("Command failed", "command", args[0], "error", err)
		os.Exit(1)
	}
}

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "Usage: %s [options] <command> [args]\n\nCommands:\n", config.Application)
	for _, c := range commands {
		fmt.Fprintf(out, "  %-34s %s\n", c.name+" "+c.args, c.help)
	}
	fmt.Fprintln(out, "\nOptions:")
	flag.PrintDefaults()
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(*envFile, nil)
	if err != nil {
		return nil, err
	}
	overrides := map[string]string{
		config.KeyClassPath:   *classPath,
		config.KeyExtension:   *extPath,
		config.KeyBootLibrary: *bootLib,
		config.KeyCorePrefix:  *corePrefix,
	}
	for _, k := range config.Keys {
		if v := overrides[k]; v != "" {
			if err := cfg.Set(k, v); err != nil {
				return nil, err
			}
		}
	}
	if *accessible {
		cfg.Accessible = true
	}
	return cfg, nil
}

func buildVersion(version, commit, date, builtBy, treeState string) goversion.Info {
	return goversion.GetVersionInfo(
		goversion.WithAppDetails(config.Application, config.Description, config.WebSite),
		func(i *goversion.Info) {
			i.ASCIIName = config.UI
			if commit != "" {
				i.GitCommit = commit
			}
			if version != "" {
				i.GitVersion = version
			}
			if treeState != "" {
				i.GitTreeState = treeState
			}
			if date != "" {
				i.BuildDate = date
			}
			if builtBy != "" {
				i.BuiltBy = builtBy
			}
		},
	)
}
