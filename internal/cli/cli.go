// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command dispatch for quizchat.
package cli

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.2.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdServe
	CmdExport
	CmdUnseal
	CmdConfig
	CmdStatus
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet   bool
	Verbose bool
	JSON    bool
	Model   string

	// Command-specific
	Subcommand string
	ConfigKey  string
	ConfigVal  string
	Addr       string
	Input      string
	Output     string
	Format     string
	Seal       bool

	// Raw args (remaining after flag parsing)
	Raw []string
}

const usageText = `quizchat - conversational quiz over a chat completion API

Quizchat walks you through a scripted quiz in the terminal, sends each
answer to a chat completion API for a reflective reply, and archives
your responses for export.

Usage:
  quizchat                    Start the quiz TUI (default)
  quizchat serve              Run the API proxy server
  quizchat export             Re-export or seal a saved result file
  quizchat unseal <file>      Decrypt a sealed result file to stdout
  quizchat config [show|set|init|path]  Configuration
  quizchat status             Show configuration and proxy status
  quizchat version            Show version information
  quizchat help               Show this help

Serve:
  quizchat serve              Start the proxy on the configured address
    --addr HOST:PORT          Override the listen address

  The proxy injects the API credential server-side so the terminal
  client never holds the key. Clients point at it via upstream.proxy_url
  or QUIZCHAT_PROXY_URL.

Export:
  quizchat export --input FILE      Saved result file to re-export
    --format json|markdown          Output format (default: config)
    --output DIR                    Output directory (default: config)
    --seal                          Encrypt the result with the
                                    configured passphrase

  quizchat unseal results.json.enc  Print a sealed file's plaintext

Config:
  quizchat config show        Show current configuration
  quizchat config set K V     Set a value (e.g. quiz.model gpt-4)
  quizchat config init        Write a default config file
  quizchat config path        Print the config file location

  Settable keys: quiz.name, quiz.model, quiz.questions_path,
  upstream.base_url, upstream.proxy_url, server.listen_addr,
  export.output_dir, export.format

Global Flags:
  -q, --quiet     Minimal output
  --verbose       Debug output
  --model NAME    Override the configured model
  --json          Output in JSON format

Environment:
  OPENAI_API_KEY        Upstream API credential (never stored in files)
  QUIZCHAT_PROXY_URL    Route completions through a running proxy
  QUIZCHAT_PASSPHRASE   Passphrase for sealed exports

Examples:
  quizchat                              Take the quiz
  quizchat serve --addr 127.0.0.1:9090  Proxy on a custom port
  quizchat export --input growth_quiz_20250101_120000.json --format markdown
  quizchat export --input results.json --seal
  quizchat unseal results.json.enc > results.json
  quizchat config set quiz.model gpt-4o

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("quizchat version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
	fmt.Printf("  Go version: %s\n", runtime.Version())
}

// Parse parses command-line arguments and returns the command and args.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses the given arguments. Split out from Parse for tests.
func ParseArgs(argv []string) (Command, Args) {
	remaining, parsedArgs := parseGlobalFlags(argv)

	if len(remaining) == 0 {
		return CmdTUI, parsedArgs
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsedArgs.Raw = remaining

	switch cmd {
	case "tui":
		return CmdTUI, parsedArgs

	case "serve", "server", "proxy":
		parseServeArgs(&parsedArgs, remaining)
		return CmdServe, parsedArgs

	case "export":
		parseExportArgs(&parsedArgs, remaining)
		return CmdExport, parsedArgs

	case "unseal", "reveal":
		if len(remaining) > 0 {
			parsedArgs.Input = remaining[0]
		}
		return CmdUnseal, parsedArgs

	case "config":
		parseConfigArgs(&parsedArgs, remaining)
		return CmdConfig, parsedArgs

	case "status", "s":
		return CmdStatus, parsedArgs

	case "version", "-v", "--version":
		return CmdVersion, parsedArgs

	case "help", "-h", "--help":
		return CmdHelp, parsedArgs

	default:
		// Unknown command: keep it in Raw and fall back to the TUI.
		parsedArgs.Raw = append([]string{cmd}, remaining...)
		return CmdTUI, parsedArgs
	}
}

// parseGlobalFlags extracts global flags and returns remaining args.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsedArgs Args

	i := 0
	for i < len(args) {
		arg := args[i]

		switch arg {
		case "-q", "--quiet":
			parsedArgs.Quiet = true
		case "--verbose":
			parsedArgs.Verbose = true
		case "--json":
			parsedArgs.JSON = true
		case "--model":
			if i+1 < len(args) {
				i++
				parsedArgs.Model = args[i]
			}
		default:
			if strings.HasPrefix(arg, "--model=") {
				parsedArgs.Model = strings.TrimPrefix(arg, "--model=")
			} else {
				remaining = append(remaining, arg)
			}
		}
		i++
	}

	return remaining, parsedArgs
}

// parseServeArgs parses serve command specific arguments.
func parseServeArgs(args *Args, remaining []string) {
	for i := 0; i < len(remaining); i++ {
		arg := remaining[i]

		switch arg {
		case "--addr", "-a":
			if i+1 < len(remaining) {
				i++
				args.Addr = remaining[i]
			}
		default:
			if strings.HasPrefix(arg, "--addr=") {
				args.Addr = strings.TrimPrefix(arg, "--addr=")
			}
		}
	}
}

// parseExportArgs parses export command specific arguments.
func parseExportArgs(args *Args, remaining []string) {
	for i := 0; i < len(remaining); i++ {
		arg := remaining[i]

		switch arg {
		case "--input", "-i":
			if i+1 < len(remaining) {
				i++
				args.Input = remaining[i]
			}
		case "--output", "-o":
			if i+1 < len(remaining) {
				i++
				args.Output = remaining[i]
			}
		case "--format", "-f":
			if i+1 < len(remaining) {
				i++
				args.Format = remaining[i]
			}
		case "--seal":
			args.Seal = true
		default:
			switch {
			case strings.HasPrefix(arg, "--input="):
				args.Input = strings.TrimPrefix(arg, "--input=")
			case strings.HasPrefix(arg, "--output="):
				args.Output = strings.TrimPrefix(arg, "--output=")
			case strings.HasPrefix(arg, "--format="):
				args.Format = strings.TrimPrefix(arg, "--format=")
			case !strings.HasPrefix(arg, "-") && args.Input == "":
				args.Input = arg
			}
		}
	}
}

// parseConfigArgs parses config command specific arguments.
func parseConfigArgs(args *Args, remaining []string) {
	if len(remaining) > 0 {
		args.Subcommand = remaining[0]
		if len(remaining) > 1 {
			args.ConfigKey = remaining[1]
		}
		if len(remaining) > 2 {
			args.ConfigVal = remaining[2]
		}
	}
}

// =============================================================================
// COMMAND HANDLERS
// =============================================================================

// HandleVersion handles the "version" command.
func HandleVersion(args Args) {
	if args.JSON {
		data := VersionData{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
		}
		resp := NewJSONResponse("version", data)
		resp.Print()
		return
	}
	PrintVersion()
}

// HandleHelp handles the "help" command.
func HandleHelp() {
	PrintUsage()
}
